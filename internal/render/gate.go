package render

import (
	"sync"

	"github.com/ziadkadry99/skapsec/internal/pipeline"
)

// AnimationGate decides whether a rendered state should animate its score.
// Each Success state animates once; rendering it again is a no-op unless
// Replay is called.
type AnimationGate struct {
	mu   sync.Mutex
	last uint64
	seen bool
}

// ShouldAnimate reports whether s is a Success not yet animated, and marks
// it as animated.
func (g *AnimationGate) ShouldAnimate(s pipeline.State) bool {
	if s.Phase != pipeline.PhaseSuccess {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen && g.last == s.Seq {
		return false
	}
	g.last, g.seen = s.Seq, true
	return true
}

// Replay lets the next ShouldAnimate call succeed for the same state.
func (g *AnimationGate) Replay() {
	g.mu.Lock()
	g.seen = false
	g.mu.Unlock()
}
