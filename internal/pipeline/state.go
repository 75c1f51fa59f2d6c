// Package pipeline implements the form submission state machine shared by
// every front-end: Idle -> Loading -> Success | Failure.
package pipeline

import "github.com/ziadkadry99/skapsec/internal/analysis"

// User-facing messages for failures that did not come from the service.
const (
	MessageMissingFields = "Please fill out all fields."
	MessageUnexpected    = "An unexpected error occurred. Please try again."
)

// Phase is the active variant of State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	}
	return "unknown"
}

// FailureKind classifies a Failure state.
type FailureKind int

const (
	KindNone FailureKind = iota
	// KindValidation: a required field was blank; no request was sent.
	KindValidation
	// KindServer: the service answered with an "error" body.
	KindServer
	// KindTransport: network failure, timeout or unreadable body.
	KindTransport
)

// Panel is one side of a comparison. Sides succeed or fail independently.
type Panel struct {
	Outcome analysis.Outcome
}

// Failed reports whether the service returned an error for this side.
func (p Panel) Failed() bool { return p.Outcome.IsError() }

// State is a snapshot of one form instance. Seq increases on every
// transition, so two snapshots with the same Seq are the same state.
type State struct {
	Phase   Phase
	Seq     uint64
	Kind    FailureKind
	Message string

	// Outcome is set for single analyses in Success, and in Failure when
	// the service reported the error.
	Outcome analysis.Outcome

	// Left and Right are set when a comparison reaches Success.
	Left, Right *Panel

	// Request and Comparison record what was submitted.
	Request    analysis.Request
	Comparison analysis.ComparisonRequest
}

// Terminal reports whether the state is Success or Failure.
func (s State) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailure
}

// Result returns the single-analysis result, or nil.
func (s State) Result() *analysis.Result {
	if s.Phase != PhaseSuccess {
		return nil
	}
	return s.Outcome.Result
}

// IsComparison reports whether the state carries comparison panels.
func (s State) IsComparison() bool {
	return s.Left != nil && s.Right != nil
}

// Renderer receives every state the controller enters.
type Renderer interface {
	Render(State)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(State)

func (f RendererFunc) Render(s State) { f(s) }
