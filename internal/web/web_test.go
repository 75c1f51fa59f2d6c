package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/skapsec/internal/db"
	"github.com/ziadkadry99/skapsec/internal/history"
	"github.com/ziadkadry99/skapsec/internal/preferences"
	"github.com/ziadkadry99/skapsec/internal/scoring"
)

const analyzeBody = `{"score":72,"credibility":"Medium","flags":[],` +
	`"breakdown":{"initial_score":100,"deductions":[{"reason":"Vague timeline","penalty":28,"category":"structure"}]},` +
	`"ml_insights":{"suspicion_probability":0.3,"top_terms":[{"term":"partnership","weight":0.25}]}}`

type fixture struct {
	srv     *httptest.Server
	client  *http.Client
	history *history.Store
	calls   atomic.Int32
}

// fakeScoring answers like the scoring service: a 400 with an error body
// for blank fields, a result otherwise.
func (f *fixture) fakeScoring(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if err := r.ParseMultipartForm(1 << 16); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad form"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case scoring.AnalyzePath:
		if r.FormValue("company_name") == "" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error": "Missing required fields"}`)
			return
		}
		io.WriteString(w, analyzeBody)
	case scoring.ComparePath:
		io.WriteString(w, `{"left":{"score":91,"credibility":"High","flags":[]},"right":{"error":"Text too short"}}`)
	default:
		http.NotFound(w, r)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	upstream := httptest.NewServer(http.HandlerFunc(f.fakeScoring))
	t.Cleanup(upstream.Close)

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	f.history = history.NewStore(database, 10)
	w, err := New(
		scoring.NewClient(upstream.URL, 5*time.Second),
		preferences.NewStore(database),
		f.history,
		Options{
			PublicOrigin:      "http://skapsec.test",
			AnimationDuration: 20 * time.Millisecond,
			ConfirmDuration:   20 * time.Millisecond,
		},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	w.RegisterRoutes(r)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)

	jar, _ := cookiejar.New(nil)
	f.client = &http.Client{Jar: jar}
	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return resp, doc
}

func (f *fixture) post(t *testing.T, path string, form url.Values) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := f.client.PostForm(f.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return resp, doc
}

func (f *fixture) clientID(t *testing.T) string {
	t.Helper()
	u, _ := url.Parse(f.srv.URL)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == ClientCookie {
			return c.Value
		}
	}
	t.Fatal("no client cookie")
	return ""
}

var acme = url.Values{
	"company_name":      {"Acme Corp"},
	"symbol":            {"ACME"},
	"announcement_text": {"New partnership with Globex."},
}

func TestAnalyzerPrefillSkipsMalformedPairs(t *testing.T) {
	f := newFixture(t)
	_, doc := f.get(t, "/analyzer?company_name=Acme&x=%zz&symbol=ACME")

	if got, _ := doc.Find("#company_name").Attr("value"); got != "Acme" {
		t.Errorf("company_name = %q", got)
	}
	if got, _ := doc.Find("#symbol").Attr("value"); got != "ACME" {
		t.Errorf("symbol = %q", got)
	}
}

func TestAnalyzerPrefillsFromQuery(t *testing.T) {
	f := newFixture(t)
	resp, doc := f.get(t, "/analyzer?company_name=Acme%20Corp&symbol=ACME")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got, _ := doc.Find("#company_name").Attr("value"); got != "Acme Corp" {
		t.Errorf("company_name = %q", got)
	}
	if got, _ := doc.Find("#symbol").Attr("value"); got != "ACME" {
		t.Errorf("symbol = %q", got)
	}
	if got := doc.Find("#announcement_text").Text(); got != "" {
		t.Errorf("announcement_text = %q", got)
	}
	if got := doc.Find("nav a.active").Text(); got != "Analyzer" {
		t.Errorf("active nav = %q", got)
	}
	if doc.Find("#result-container .dashboard").Length() != 0 {
		t.Error("fresh page must not show a result")
	}
	if resp.Header.Get("Accept-CH") != hintHeader {
		t.Errorf("Accept-CH = %q", resp.Header.Get("Accept-CH"))
	}
	if f.calls.Load() != 0 {
		t.Error("loading the page must not call the scoring service")
	}
}

func TestAnalyzerSubmitRendersDashboard(t *testing.T) {
	f := newFixture(t)
	_, doc := f.post(t, "/analyzer", acme)

	if got := doc.Find(".score-value").Text(); got != "72" {
		t.Errorf("score = %q", got)
	}
	if !doc.Find("#score-circle").HasClass("score-medium") {
		t.Error("score circle tier class missing")
	}
	if got := doc.Find(".no-flags").Text(); got != "No specific red flags were detected." {
		t.Errorf("flags placeholder = %q", got)
	}
	if got := doc.Find(".deductions-list .badge").Text(); got != "-28" {
		t.Errorf("badge = %q", got)
	}
	if got := doc.Find(".chip").Text(); got != "partnership · 25%" {
		t.Errorf("chip = %q", got)
	}
	wantShare := "http://skapsec.test/analyzer?company_name=Acme%20Corp&symbol=ACME&announcement_text=New%20partnership%20with%20Globex."
	if got, _ := doc.Find(`[data-action="share"]`).Attr("href"); got != wantShare {
		t.Errorf("share link = %q\nwant %q", got, wantShare)
	}
	if got, _ := doc.Find("#company_name").Attr("value"); got != "Acme Corp" {
		t.Errorf("form not kept: %q", got)
	}
}

func TestAnalyzerSubmitValidation(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"company_name": {"Acme"}, "symbol": {" "}, "announcement_text": {"x"}}
	_, doc := f.post(t, "/analyzer", form)

	if got := doc.Find("#result-container .error").Text(); got != "Please fill out all fields." {
		t.Errorf("error = %q", got)
	}
	if doc.Find(".dashboard").Length() != 0 {
		t.Error("validation failure must not render a dashboard")
	}
	if f.calls.Load() != 0 {
		t.Errorf("scoring called %d times", f.calls.Load())
	}
}

func (f *fixture) download(t *testing.T, href string) (int, string) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + href)
	if err != nil {
		t.Fatalf("GET %s: %v", href, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestExportIsBoundToRenderedResult(t *testing.T) {
	f := newFixture(t)

	if status, _ := f.download(t, "/analyzer/export"); status != http.StatusNotFound {
		t.Fatalf("export without id: status %d", status)
	}

	_, first := f.post(t, "/analyzer", acme)
	href, ok := first.Find(`[data-action="export"]`).Attr("href")
	if !ok || !strings.HasPrefix(href, "/analyzer/export?id=") {
		t.Fatalf("export href = %q", href)
	}

	// A later submission from the same client must not change what the
	// first page downloads.
	f.post(t, "/analyzer", url.Values{"company_name": {""}, "symbol": {""}, "announcement_text": {""}})

	resp, err := f.client.Get(f.srv.URL + href)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="analysis.json"` {
		t.Errorf("disposition = %q", cd)
	}
	if !strings.HasPrefix(string(body), "{\n  \"score\": 72,\n  \"credibility\": \"Medium\",") {
		t.Errorf("export body = %s", body)
	}
}

func TestExportRejectsOtherClientsAndKinds(t *testing.T) {
	f := newFixture(t)
	_, doc := f.post(t, "/analyzer", acme)
	href, _ := doc.Find(`[data-action="export"]`).Attr("href")

	id := strings.TrimPrefix(href, "/analyzer/export?id=")
	if status, _ := f.download(t, "/compare/export?id="+id); status != http.StatusNotFound {
		t.Errorf("analysis served as comparison: status %d", status)
	}

	other := &http.Client{}
	resp, err := other.Get(f.srv.URL + href)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("export from another client: status %d", resp.StatusCode)
	}
}

func TestThemeTogglePersists(t *testing.T) {
	f := newFixture(t)

	_, doc := f.get(t, "/")
	if got, _ := doc.Find("html").Attr("data-theme"); got != "light" {
		t.Fatalf("initial theme = %q", got)
	}
	if got := doc.Find("#theme-label").Text(); got != "Dark" {
		t.Errorf("toggle label = %q", got)
	}

	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/theme", nil)
	req.Header.Set("Referer", f.srv.URL+"/about")
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("POST /theme: %v", err)
	}
	defer resp.Body.Close()
	if resp.Request.URL.Path != "/about" {
		t.Errorf("redirected to %q", resp.Request.URL.Path)
	}

	_, doc = f.get(t, "/")
	if got, _ := doc.Find("html").Attr("data-theme"); got != "dark" {
		t.Errorf("theme after toggle = %q", got)
	}
	if got := doc.Find("#theme-icon").Text(); got != "🌞" {
		t.Errorf("icon = %q", got)
	}
}

func TestThemeFollowsClientHint(t *testing.T) {
	f := newFixture(t)
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/about", nil)
	req.Header.Set(hintHeader, "dark")
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	doc, _ := goquery.NewDocumentFromReader(resp.Body)

	if got, _ := doc.Find("html").Attr("data-theme"); got != "dark" {
		t.Errorf("theme = %q", got)
	}
	if got := doc.Find(".about-section h1").Text(); got != "About SkapSec" {
		t.Errorf("about heading = %q", got)
	}
}

func TestProxyRelaysStatusAndBody(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.PostForm(f.srv.URL+scoring.AnalyzePath, url.Values{"symbol": {"X"}})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(body) != `{"error": "Missing required fields"}` {
		t.Errorf("body = %s", body)
	}

	resp, err = f.client.PostForm(f.srv.URL+scoring.AnalyzePath, acme)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	body, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != analyzeBody {
		t.Errorf("status %d body %s", resp.StatusCode, body)
	}
}

func TestCompareSubmit(t *testing.T) {
	f := newFixture(t)
	form := url.Values{}
	for _, side := range []string{"left_", "right_"} {
		form.Set(side+"company_name", "Co "+side)
		form.Set(side+"symbol", "SYM")
		form.Set(side+"announcement_text", "text")
	}
	_, doc := f.post(t, "/compare", form)

	panels := doc.Find("#compare-result .panel")
	if panels.Length() != 2 {
		t.Fatalf("panels = %d", panels.Length())
	}
	if got := panels.First().Find(".no-flags").Text(); got != "No flags." {
		t.Errorf("left placeholder = %q", got)
	}
	if got := panels.Last().Find(".error").Text(); got != "Text too short" {
		t.Errorf("right error = %q", got)
	}

	href, ok := doc.Find(`#compare-result [data-action="export"]`).Attr("href")
	if !ok || !strings.HasPrefix(href, "/compare/export?id=") {
		t.Fatalf("export href = %q", href)
	}
	entry, err := f.history.Get(t.Context(), f.clientID(t), strings.TrimPrefix(href, "/compare/export?id="))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Kind != history.KindCompare || !entry.IsError || entry.CompanyName != "Co left_ / Co right_" {
		t.Errorf("entry = %+v", entry)
	}

	status, body := f.download(t, href)
	if status != http.StatusOK {
		t.Fatalf("export status %d", status)
	}
	want := "{\n  \"left\": {\n    \"score\": 91,"
	if !strings.HasPrefix(body, want) || !strings.Contains(body, `"error": "Text too short"`) {
		t.Errorf("export body = %s", body)
	}
}

func TestHomeExamples(t *testing.T) {
	f := newFixture(t)
	_, doc := f.get(t, "/")

	links := doc.Find(".example-link")
	if links.Length() != 2 {
		t.Fatalf("examples = %d", links.Length())
	}
	href, _ := links.First().Attr("href")
	if !strings.HasPrefix(href, "/analyzer?company_name=Acme%20Corp&symbol=ACME&announcement_text=We%20are%20pleased") {
		t.Errorf("legit example = %q", href)
	}
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t)
	resp, err := f.client.Get(f.srv.URL + "/static/app.js")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestLiveOpFrameKeepsZero(t *testing.T) {
	b, err := json.Marshal(liveOp{Type: opFrame, Target: "x", Value: 0})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"value":0`) {
		t.Errorf("frame = %s", b)
	}
	b, _ = json.Marshal(liveOp{Type: opPatch, Target: "x"})
	if strings.Contains(string(b), `"value"`) {
		t.Errorf("patch = %s", b)
	}
}
