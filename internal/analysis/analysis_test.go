package analysis

import (
	"errors"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"all present", Request{"Acme Corp", "ACME", "We are pleased"}, false},
		{"missing company", Request{"", "ACME", "text"}, true},
		{"whitespace symbol", Request{"Acme", "   ", "text"}, true},
		{"whitespace text", Request{"Acme", "ACME", "\n\t"}, true},
		{"padded values", Request{"  Acme ", " ACME", "text "}, false},
	}
	for _, tt := range tests {
		err := tt.req.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestRequestFieldsRoundTrip(t *testing.T) {
	req := Request{CompanyName: "Acme Corp", Symbol: "ACME", AnnouncementText: "Hello World"}
	v := req.Fields(PrefixLeft)
	if v.Get("left_company_name") != "Acme Corp" {
		t.Errorf("left_company_name = %q", v.Get("left_company_name"))
	}
	if got := RequestFromValues(v, PrefixLeft); got != req {
		t.Errorf("RequestFromValues = %+v, want %+v", got, req)
	}
}

func TestComparisonRequestFields(t *testing.T) {
	c := ComparisonRequest{
		Left:  Request{"A", "AAA", "left text"},
		Right: Request{"B", "BBB", "right text"},
	}
	v := c.Fields()
	if len(v) != 6 {
		t.Fatalf("expected 6 fields, got %d", len(v))
	}
	if v.Get("right_symbol") != "BBB" {
		t.Errorf("right_symbol = %q", v.Get("right_symbol"))
	}
	c.Right.Symbol = " "
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for blank right symbol")
	}
}

func TestDecodeOutcomeResult(t *testing.T) {
	body := []byte(`{"score":82,"credibility":"High","flags":[],"breakdown":{"initial_score":100,"deductions":[{"reason":"b","penalty":10,"category":"x"},{"reason":"a","penalty":8,"category":"y"}]}}`)
	o, err := DecodeOutcome(body)
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	if o.IsError() {
		t.Fatal("expected result outcome")
	}
	if o.Result.Score != 82 || o.Result.Credibility != CredibilityHigh {
		t.Errorf("got score=%d credibility=%q", o.Result.Score, o.Result.Credibility)
	}
	if d := o.Result.Breakdown.Deductions; len(d) != 2 || d[0].Reason != "b" {
		t.Errorf("deduction order not preserved: %+v", d)
	}
	if o.Result.HasTopTerms() {
		t.Error("expected no top terms")
	}
	if string(o.Raw) != string(body) {
		t.Error("raw body not preserved")
	}
}

func TestDecodeOutcomeError(t *testing.T) {
	o, err := DecodeOutcome([]byte(`{"error":"text too short"}`))
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	if !o.IsError() || o.Error != "text too short" {
		t.Errorf("got %+v", o)
	}
}

func TestDecodeOutcomeBlankErrorIsAbsent(t *testing.T) {
	for _, body := range []string{
		`{"error":null,"score":64,"credibility":"Medium","flags":[]}`,
		`{"error":"","score":64,"credibility":"Medium","flags":[]}`,
		`{"error":false,"score":64,"credibility":"Medium","flags":[]}`,
	} {
		o, err := DecodeOutcome([]byte(body))
		if err != nil {
			t.Fatalf("DecodeOutcome(%s): %v", body, err)
		}
		if o.IsError() || o.Result.Score != 64 {
			t.Errorf("DecodeOutcome(%s) = %+v, want result", body, o)
		}
	}

	for _, body := range []string{`{"error":null}`, `{"error":"  "}`} {
		if _, err := DecodeOutcome([]byte(body)); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("DecodeOutcome(%s) err = %v, want ErrMalformedResponse", body, err)
		}
	}

	c, err := DecodeComparison([]byte(`{"error":null,"left":{"score":80,"credibility":"High","flags":[]},"right":{"error":"too short"}}`))
	if err != nil {
		t.Fatalf("DecodeComparison: %v", err)
	}
	if c.Left.IsError() || !c.Right.IsError() {
		t.Errorf("got %+v / %+v", c.Left, c.Right)
	}
}

func TestDecodeOutcomeMalformed(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `null`, `{"score":"high"}`, `{"score":140,"credibility":"High"}`} {
		if _, err := DecodeOutcome([]byte(body)); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("DecodeOutcome(%q) err = %v, want ErrMalformedResponse", body, err)
		}
	}
}

func TestDecodeComparison(t *testing.T) {
	body := []byte(`{"left":{"score":40,"credibility":"Low","flags":["hype language"]},"right":{"score":90,"credibility":"High","flags":[]}}`)
	c, err := DecodeComparison(body)
	if err != nil {
		t.Fatalf("DecodeComparison: %v", err)
	}
	if c.Left.Result.Score != 40 || c.Left.Result.Credibility != CredibilityLow {
		t.Errorf("left = %+v", c.Left.Result)
	}
	if len(c.Left.Result.Flags) != 1 || c.Left.Result.Flags[0] != "hype language" {
		t.Errorf("left flags = %v", c.Left.Result.Flags)
	}
	if c.Right.Result.Score != 90 || len(c.Right.Result.Flags) != 0 {
		t.Errorf("right = %+v", c.Right.Result)
	}
}

func TestDecodeComparisonMixed(t *testing.T) {
	c, err := DecodeComparison([]byte(`{"left":{"error":"too short"},"right":{"score":70,"credibility":"Medium","flags":[]}}`))
	if err != nil {
		t.Fatalf("DecodeComparison: %v", err)
	}
	if !c.Left.IsError() || c.Right.IsError() {
		t.Errorf("expected left error and right result, got %+v / %+v", c.Left, c.Right)
	}
}

func TestDecodeComparisonTopLevelError(t *testing.T) {
	c, err := DecodeComparison([]byte(`{"error":"missing fields"}`))
	if err != nil {
		t.Fatalf("DecodeComparison: %v", err)
	}
	if c.Left.Error != "missing fields" || c.Right.Error != "missing fields" {
		t.Errorf("got %+v", c)
	}
}

func TestCredibilityClass(t *testing.T) {
	if CredibilityMedium.Class() != "medium" {
		t.Errorf("Class() = %q", CredibilityMedium.Class())
	}
	if Credibility("Unrated").Class() != "unrated" {
		t.Error("unknown tiers should still lower-case")
	}
}

func TestPrettyKeepsKeyOrderAndNumbers(t *testing.T) {
	o, err := DecodeOutcome([]byte(`{"score":72,"credibility":"Medium","flags":[],"breakdown":{"initial_score":100.0,"deductions":[]}}`))
	if err != nil {
		t.Fatalf("DecodeOutcome: %v", err)
	}
	got, err := o.Pretty()
	if err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := "{\n  \"score\": 72,\n  \"credibility\": \"Medium\",\n  \"flags\": [],\n  \"breakdown\": {\n    \"initial_score\": 100.0,\n    \"deductions\": []\n  }\n}"
	if string(got) != want {
		t.Errorf("Pretty =\n%s\nwant\n%s", got, want)
	}

	if _, err := (Outcome{}).Pretty(); err == nil {
		t.Error("expected error for empty body")
	}
}
