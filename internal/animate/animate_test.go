package animate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestFrame(t *testing.T) {
	d := 1500 * time.Millisecond
	tests := []struct {
		name    string
		elapsed time.Duration
		target  int
		want    int
		done    bool
	}{
		{"start", 0, 100, 0, false},
		{"half", 750 * time.Millisecond, 100, 87, false},
		{"end", d, 100, 100, true},
		{"past end", 2 * d, 73, 73, true},
		{"zero target", 500 * time.Millisecond, 0, 0, false},
		{"end odd target", d, 37, 37, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, done := Frame(tt.elapsed, d, tt.target)
			if got != tt.want || done != tt.done {
				t.Errorf("Frame(%v, %d) = %d, %v; want %d, %v", tt.elapsed, tt.target, got, done, tt.want, tt.done)
			}
		})
	}
}

func TestFrameMonotonicAndBounded(t *testing.T) {
	d := 1500 * time.Millisecond
	for target := 0; target <= 100; target++ {
		prev := 0
		for ms := 0; ms <= 1600; ms += 7 {
			v, _ := Frame(time.Duration(ms)*time.Millisecond, d, target)
			if v < prev || v > target {
				t.Fatalf("target %d at %dms: %d (prev %d)", target, ms, v, prev)
			}
			prev = v
		}
		if prev != target {
			t.Fatalf("target %d ended at %d", target, prev)
		}
	}
}

type collector struct {
	mu     sync.Mutex
	values []int
}

func (c *collector) emit(v int) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
}

func (c *collector) snapshot() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.values...)
}

func TestRunEndsAtTarget(t *testing.T) {
	a := New(WithDuration(40*time.Millisecond), WithInterval(2*time.Millisecond))
	c := &collector{}

	if err := a.Run(context.Background(), 72, c.emit); err != nil {
		t.Fatalf("Run: %v", err)
	}
	vals := c.snapshot()
	if len(vals) < 2 {
		t.Fatalf("expected several frames, got %v", vals)
	}
	if vals[0] != 0 {
		t.Errorf("first frame = %d, want 0", vals[0])
	}
	if vals[len(vals)-1] != 72 {
		t.Errorf("last frame = %d, want 72", vals[len(vals)-1])
	}
	for i := 1; i < len(vals); i++ {
		if vals[i] < vals[i-1] {
			t.Fatalf("frames decreased: %v", vals)
		}
	}
}

func TestRestartAbandonsPreviousRun(t *testing.T) {
	a := New(WithDuration(50*time.Millisecond), WithInterval(time.Millisecond))
	first := &collector{}
	firstDone := a.Start(context.Background(), 100, first.emit)

	second := &collector{}
	secondDone := a.Start(context.Background(), 40, second.emit)
	seen := len(first.snapshot())

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("first run did not stop after restart")
	}
	<-secondDone

	if n := len(first.snapshot()); n != seen {
		t.Errorf("first run emitted %d frames after restart", n-seen)
	}
	vals := second.snapshot()
	if vals[len(vals)-1] != 40 {
		t.Errorf("second run ended at %d", vals[len(vals)-1])
	}
}

func TestStop(t *testing.T) {
	a := New(WithDuration(time.Hour), WithInterval(time.Millisecond))
	c := &collector{}
	done := a.Start(context.Background(), 100, c.emit)
	a.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
}

func TestRunHonoursContext(t *testing.T) {
	a := New(WithDuration(time.Hour), WithInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx, 100, func(int) {}); err == nil {
		t.Fatal("expected context error")
	}
}
