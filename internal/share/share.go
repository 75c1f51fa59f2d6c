// Package share builds share links and JSON exports for settled results.
package share

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
)

// ErrNoResult is returned when nothing has been settled yet.
var ErrNoResult = errors.New("no result available")

// Export download metadata.
const (
	ExportFilename    = "analysis.json"
	ExportContentType = "application/json"
)

// componentUnescaper restores the characters encodeURIComponent leaves
// alone but url.QueryEscape encodes.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent escapes s like encodeURIComponent: everything except
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded as UTF-8.
func EncodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// BuildURL returns origin+path with the three request fields as query
// parameters, in a fixed order.
func BuildURL(origin, path string, req analysis.Request) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(origin, "/"))
	b.WriteString(path)
	b.WriteString("?")
	b.WriteString(analysis.FieldCompanyName + "=" + EncodeComponent(req.CompanyName))
	b.WriteString("&" + analysis.FieldSymbol + "=" + EncodeComponent(req.Symbol))
	b.WriteString("&" + analysis.FieldAnnouncementText + "=" + EncodeComponent(req.AnnouncementText))
	return b.String()
}

// ExportJSON returns the outcome pretty-printed with two-space indentation.
func ExportJSON(o analysis.Outcome) ([]byte, error) {
	if len(o.Raw) == 0 {
		return nil, ErrNoResult
	}
	return o.Pretty()
}

// OutcomeFromState picks the outcome to export for a settled state.
// Failures that never reached the service export as {"error": message}.
// Comparisons export both sides under "left" and "right".
func OutcomeFromState(s pipeline.State) (analysis.Outcome, error) {
	if !s.Terminal() {
		return analysis.Outcome{}, ErrNoResult
	}
	if s.IsComparison() {
		raw, err := json.Marshal(struct {
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}{s.Left.Outcome.Raw, s.Right.Outcome.Raw})
		if err != nil {
			return analysis.Outcome{}, fmt.Errorf("combining comparison: %w", err)
		}
		return analysis.Outcome{Raw: raw}, nil
	}
	if len(s.Outcome.Raw) > 0 {
		return s.Outcome, nil
	}
	return analysis.ErrorOutcome(s.Message), nil
}
