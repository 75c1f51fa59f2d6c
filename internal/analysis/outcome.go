package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when a response body is not a JSON
// object that can be interpreted as a result or an error.
var ErrMalformedResponse = errors.New("malformed scoring response")

// Outcome is one decoded response: either a Result or a service-reported
// error. Raw keeps the body exactly as received so exports can reproduce it
// without reordering keys or re-typing numbers.
type Outcome struct {
	Result *Result
	Error  string
	Raw    json.RawMessage
}

// IsError reports whether the service reported an error for this request.
func (o Outcome) IsError() bool {
	return o.Result == nil
}

// DecodeOutcome interprets a response body. A non-blank "error" selects the
// error branch; otherwise the body must decode as a Result.
func DecodeOutcome(body []byte) (Outcome, error) {
	body = bytes.TrimSpace(body)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	msg, hasErr := fields["error"]
	if hasErr && !blankError(msg) {
		var text string
		if err := json.Unmarshal(msg, &text); err != nil {
			// Non-string errors are shown as their JSON text.
			text = string(msg)
		}
		return Outcome{Error: text, Raw: raw}, nil
	}
	if _, ok := fields["score"]; hasErr && !ok {
		return Outcome{}, fmt.Errorf("%w: empty error and no result", ErrMalformedResponse)
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if res.Score < 0 || res.Score > 100 {
		return Outcome{}, fmt.Errorf("%w: score %d out of range", ErrMalformedResponse, res.Score)
	}
	return Outcome{Result: &res, Raw: raw}, nil
}

// blankError reports whether an "error" value is falsy: null, false, 0 or a
// blank string. Such a key is treated as absent.
func blankError(msg json.RawMessage) bool {
	switch string(bytes.TrimSpace(msg)) {
	case "null", "false", "0":
		return true
	}
	var text string
	if err := json.Unmarshal(msg, &text); err == nil {
		return strings.TrimSpace(text) == ""
	}
	return false
}

// Pretty returns Raw indented with two spaces. Key order and number text
// are kept exactly as received.
func (o Outcome) Pretty() ([]byte, error) {
	if len(o.Raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, o.Raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indenting response: %w", err)
	}
	return buf.Bytes(), nil
}

// ErrorOutcome builds an outcome for a failure that never produced a
// service body, so it can still be exported as {"error": msg}.
func ErrorOutcome(msg string) Outcome {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return Outcome{Error: msg, Raw: raw}
}

// Comparison is the decoded /api/compare response. Each side is independent.
type Comparison struct {
	Left  Outcome
	Right Outcome
}

// DecodeComparison splits a compare response into its two outcomes. A body
// that carries a top-level "error" instead of sides applies that error to
// both panels.
func DecodeComparison(body []byte) (Comparison, error) {
	var sides map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &sides); err != nil || sides == nil {
		return Comparison{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if e, ok := sides["error"]; ok && !blankError(e) {
		o, err := DecodeOutcome(body)
		if err != nil {
			return Comparison{}, err
		}
		return Comparison{Left: o, Right: o}, nil
	}

	left, err := decodeSide(sides, "left")
	if err != nil {
		return Comparison{}, err
	}
	right, err := decodeSide(sides, "right")
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Left: left, Right: right}, nil
}

func decodeSide(sides map[string]json.RawMessage, key string) (Outcome, error) {
	raw, ok := sides[key]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: missing %q", ErrMalformedResponse, key)
	}
	o, err := DecodeOutcome(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", key, err)
	}
	return o, nil
}
