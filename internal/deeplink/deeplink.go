// Package deeplink pre-fills forms from the page URL. Reading happens once
// when a page loads; later edits never write back to the URL.
package deeplink

import (
	"net/url"

	"github.com/ziadkadry99/skapsec/internal/analysis"
)

// Read returns the analyzer fields carried by query. Absent keys yield
// empty fields.
func Read(query url.Values) analysis.Request {
	return analysis.RequestFromValues(query, "")
}

// ReadComparison returns the left_ and right_ fields of the compare form.
func ReadComparison(query url.Values) analysis.ComparisonRequest {
	return analysis.ComparisonRequest{
		Left:  analysis.RequestFromValues(query, analysis.PrefixLeft),
		Right: analysis.RequestFromValues(query, analysis.PrefixRight),
	}
}

// ReadRawQuery parses a raw query string and reads it. Malformed pairs are
// skipped; the well-formed ones still fill the form.
func ReadRawQuery(raw string) analysis.Request {
	q, _ := url.ParseQuery(raw)
	return Read(q)
}
