// Package analysis holds the request and response shapes exchanged with the
// credibility scoring service.
package analysis

import "strings"

// Credibility is the tier assigned by the scoring service. It is opaque to
// this client and never derived from the numeric score.
type Credibility string

const (
	CredibilityHigh   Credibility = "High"
	CredibilityMedium Credibility = "Medium"
	CredibilityLow    Credibility = "Low"
)

// Class returns the lower-cased tier used for styling, e.g. "high".
func (c Credibility) Class() string {
	return strings.ToLower(string(c))
}

// Deduction is one penalty applied to the initial score.
type Deduction struct {
	Reason   string  `json:"reason"`
	Penalty  float64 `json:"penalty"`
	Category string  `json:"category"`
}

// Breakdown explains how the final score was reached. Deductions are kept
// in the order the service returned them.
type Breakdown struct {
	InitialScore float64     `json:"initial_score"`
	Deductions   []Deduction `json:"deductions"`
}

// TopTerm is a term contributing to the model's suspicion probability.
type TopTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// MLInsights is the optional model-derived section of a result.
type MLInsights struct {
	SuspicionProbability float64   `json:"suspicion_probability"`
	TopTerms             []TopTerm `json:"top_terms"`
}

// Result is a successful credibility verdict.
type Result struct {
	Score       int         `json:"score"`
	Credibility Credibility `json:"credibility"`
	Flags       []string    `json:"flags"`
	Breakdown   Breakdown   `json:"breakdown"`
	MLInsights  *MLInsights `json:"ml_insights,omitempty"`
}

// HasTopTerms reports whether the result carries any model top terms.
func (r *Result) HasTopTerms() bool {
	return r != nil && r.MLInsights != nil && len(r.MLInsights.TopTerms) > 0
}
