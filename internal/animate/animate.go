// Package animate counts a score up from zero with an ease-out cubic curve.
package animate

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	DefaultDuration = 1500 * time.Millisecond
	// DefaultInterval approximates one display frame.
	DefaultInterval = 16 * time.Millisecond
)

// Ease is the ease-out cubic curve 1 - (1 - p)^3.
func Ease(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// Frame returns the value shown after elapsed time and whether the run is
// complete. The value is 0 at the start, never decreases, and equals target
// once elapsed reaches duration.
func Frame(elapsed, duration time.Duration, target int) (int, bool) {
	if duration <= 0 || elapsed >= duration {
		return max(target, 0), true
	}
	if target <= 0 || elapsed <= 0 {
		return 0, false
	}
	p := float64(elapsed) / float64(duration)
	return min(int(math.Floor(Ease(p)*float64(target))), target), false
}

// Option configures an Animator.
type Option func(*Animator)

// WithDuration sets how long one run takes.
func WithDuration(d time.Duration) Option {
	return func(a *Animator) { a.duration = d }
}

// WithInterval sets the time between frames.
func WithInterval(d time.Duration) Option {
	return func(a *Animator) { a.interval = d }
}

// Animator emits frames for one display element. Starting a new run
// abandons the previous one: once Start returns, no frame of the earlier
// run is emitted.
type Animator struct {
	duration time.Duration
	interval time.Duration

	mu  sync.Mutex
	gen uint64
}

// New returns an Animator with the default timing.
func New(opts ...Option) *Animator {
	a := &Animator{duration: DefaultDuration, interval: DefaultInterval}
	for _, o := range opts {
		o(a)
	}
	if a.interval <= 0 {
		a.interval = DefaultInterval
	}
	return a
}

// Start begins a run towards target. emit is called with each frame value
// and must not call back into the Animator. The returned channel is closed
// when the run finishes, is superseded, stopped or ctx is done.
func (a *Animator) Start(ctx context.Context, target int, emit func(int)) <-chan struct{} {
	a.mu.Lock()
	a.gen++
	gen, duration := a.gen, a.duration
	a.mu.Unlock()

	done := make(chan struct{})
	go a.loop(ctx, gen, duration, target, emit, done)
	return done
}

// Run is the blocking form of Start.
func (a *Animator) Run(ctx context.Context, target int, emit func(int)) error {
	<-a.Start(ctx, target, emit)
	return ctx.Err()
}

// Stop abandons the current run without emitting further frames.
func (a *Animator) Stop() {
	a.mu.Lock()
	a.gen++
	a.mu.Unlock()
}

func (a *Animator) loop(ctx context.Context, gen uint64, duration time.Duration, target int, emit func(int), done chan struct{}) {
	defer close(done)

	start := time.Now()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		v, finished := Frame(time.Since(start), duration, target)
		if !a.emitIfCurrent(gen, v, emit) || finished {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *Animator) emitIfCurrent(gen uint64, v int, emit func(int)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return false
	}
	emit(v)
	return true
}
