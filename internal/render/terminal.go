package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ziadkadry99/skapsec/internal/animate"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
	"github.com/ziadkadry99/skapsec/internal/progress"
)

// Terminal renders states as text. Scores count up on a progress meter
// before the rest of the dashboard is printed.
type Terminal struct {
	w     io.Writer
	meter progress.Meter
	anim  *animate.Animator
	gate  AnimationGate
}

// NewTerminal returns a terminal renderer. A nil animator prints scores
// without animating.
func NewTerminal(w io.Writer, meter progress.Meter, anim *animate.Animator) *Terminal {
	return &Terminal{w: w, meter: meter, anim: anim}
}

// Render implements pipeline.Renderer.
func (t *Terminal) Render(s pipeline.State) {
	v := BuildView(s)
	play := t.gate.ShouldAnimate(s)

	switch {
	case v.Loading:
		fmt.Fprintln(t.w, "Analyzing announcement...")
	case v.Error != "":
		fmt.Fprintf(t.w, "Error: %s\n", v.Error)
	case v.Result != nil:
		t.result(v.Result, play)
	case v.Left != nil:
		t.panel(v.Left, play)
		fmt.Fprintln(t.w)
		t.panel(v.Right, play)
	}
}

func (t *Terminal) panel(p *PanelView, play bool) {
	fmt.Fprintf(t.w, "== %s ==\n", p.Title)
	if p.Error != "" {
		fmt.Fprintf(t.w, "Error: %s\n", p.Error)
		return
	}
	t.score(p.Result.Score, play)
	t.flags(p.Result)
	t.chips(p.Result)
}

func (t *Terminal) result(r *ResultView, play bool) {
	t.score(r.Score, play)
	t.flags(r)

	fmt.Fprintf(t.w, "\nScore Breakdown (starting score %s):\n", r.InitialScore)
	for _, d := range r.Deductions {
		fmt.Fprintf(t.w, "  %-50s %s\n", d.Reason, d.Badge)
	}
	t.chips(r)
}

func (t *Terminal) score(s ScoreView, play bool) {
	if play && t.anim != nil && t.meter != nil {
		t.meter.Start("Credibility score", 100)
		_ = t.anim.Run(context.Background(), s.Value, t.meter.Set)
		t.meter.Finish()
	}
	fmt.Fprintf(t.w, "Score: %d/100\nCredibility: %s\n", s.Value, s.Credibility)
}

func (t *Terminal) flags(r *ResultView) {
	fmt.Fprintln(t.w, "\nFlags Raised:")
	if len(r.Flags) == 0 {
		fmt.Fprintf(t.w, "  %s\n", r.NoFlags)
		return
	}
	for _, f := range r.Flags {
		fmt.Fprintf(t.w, "  - %s\n", f)
	}
}

func (t *Terminal) chips(r *ResultView) {
	if len(r.Chips) == 0 {
		return
	}
	fmt.Fprintf(t.w, "\nML Top Terms: %s\n", strings.Join(r.Chips, ", "))
}
