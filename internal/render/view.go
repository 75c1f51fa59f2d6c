// Package render turns pipeline states into a presentation-agnostic view
// model and binds it to HTML and terminal output.
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
)

// Placeholders shown when a result has no flags.
const (
	NoFlagsText      = "No specific red flags were detected."
	NoFlagsPanelText = "No flags."
)

// Comparison panel titles.
const (
	LeftTitle  = "Announcement A"
	RightTitle = "Announcement B"
)

// ShareLabel is the resting label of the share button.
const ShareLabel = "Share Link"

// Score widget slots. Live adapters address frames to a slot.
const (
	SlotMain  = "main"
	SlotLeft  = "left"
	SlotRight = "right"
)

// ScoreView is the score widget. Shown is the value currently displayed;
// it starts at Value and is lowered by adapters that animate.
type ScoreView struct {
	Slot        string
	Value       int
	Shown       int
	Credibility string
	Class       string
}

// DeductionView is one row of the score breakdown.
type DeductionView struct {
	Reason   string
	Category string
	Badge    string
}

// ResultView is the dashboard of one successful analysis.
type ResultView struct {
	Score        ScoreView
	Flags        []string
	NoFlags      string
	InitialScore string
	Deductions   []DeductionView
	Chips        []string
}

// PanelView is one side of a comparison.
type PanelView struct {
	Title  string
	Error  string
	Result *ResultView
}

// Actions are the share and export controls under the score widget.
type Actions struct {
	ShareURL  string
	ExportURL string
	CopyLabel string
}

// View is everything an adapter needs to draw one state.
type View struct {
	Seq     uint64
	Phase   pipeline.Phase
	Loading bool
	// Visible reports whether the result area is shown at all.
	Visible bool
	Error   string
	Result  *ResultView
	Left    *PanelView
	Right   *PanelView
	// Raw is the response body, for the JSON preview.
	Raw json.RawMessage
	// Actions is filled in by adapters that offer share and export.
	Actions *Actions
}

// BuildView maps a state to its view. Failure yields exactly one message
// and no dashboard; Success yields the dashboard or both comparison panels.
func BuildView(s pipeline.State) View {
	v := View{Seq: s.Seq, Phase: s.Phase}
	switch s.Phase {
	case pipeline.PhaseLoading:
		v.Loading = true
	case pipeline.PhaseFailure:
		v.Visible = true
		v.Error = s.Message
	case pipeline.PhaseSuccess:
		v.Visible = true
		if s.IsComparison() {
			v.Left = buildPanel(LeftTitle, SlotLeft, *s.Left)
			v.Right = buildPanel(RightTitle, SlotRight, *s.Right)
			return v
		}
		if res := s.Result(); res != nil {
			v.Result = BuildResult(res, NoFlagsText)
			v.Raw = s.Outcome.Raw
		}
	}
	return v
}

func buildPanel(title, slot string, p pipeline.Panel) *PanelView {
	if p.Failed() {
		return &PanelView{Title: title, Error: p.Outcome.Error}
	}
	rv := BuildResult(p.Outcome.Result, NoFlagsPanelText)
	rv.Score.Slot = slot
	return &PanelView{Title: title, Result: rv}
}

// BuildResult formats a result. noFlags is the placeholder used when the
// flag list is empty.
func BuildResult(r *analysis.Result, noFlags string) *ResultView {
	rv := &ResultView{
		Score: ScoreView{
			Slot:        SlotMain,
			Value:       r.Score,
			Shown:       r.Score,
			Credibility: string(r.Credibility),
			Class:       ScoreClass(r.Credibility),
		},
		Flags:        r.Flags,
		InitialScore: FormatNumber(r.Breakdown.InitialScore),
	}
	if len(rv.Flags) == 0 {
		rv.NoFlags = noFlags
	}
	for _, d := range r.Breakdown.Deductions {
		rv.Deductions = append(rv.Deductions, DeductionView{
			Reason:   d.Reason,
			Category: d.Category,
			Badge:    PenaltyBadge(d.Penalty),
		})
	}
	if r.HasTopTerms() {
		for _, t := range r.MLInsights.TopTerms {
			rv.Chips = append(rv.Chips, ChipLabel(t))
		}
	}
	return rv
}

// Scores returns the score widgets of v, for adapters that animate them.
func (v View) Scores() []*ScoreView {
	var out []*ScoreView
	if v.Result != nil {
		out = append(out, &v.Result.Score)
	}
	for _, p := range []*PanelView{v.Left, v.Right} {
		if p != nil && p.Result != nil {
			out = append(out, &p.Result.Score)
		}
	}
	return out
}

// ScoreClass returns the CSS class of the score circle.
func ScoreClass(c analysis.Credibility) string {
	return "score-" + c.Class()
}

// PenaltyBadge formats a deduction as "-<penalty>".
func PenaltyBadge(p float64) string {
	return "-" + FormatNumber(p)
}

// FormatNumber prints a number in its shortest form: 5, 2.5, 0.25.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ChipLabel formats a top term as "term · NN%", rounding half away from zero.
func ChipLabel(t analysis.TopTerm) string {
	return fmt.Sprintf("%s · %d%%", t.Term, int(math.Round(t.Weight*100)))
}
