package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/deeplink"
	"github.com/ziadkadry99/skapsec/internal/history"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
	"github.com/ziadkadry99/skapsec/internal/render"
	"github.com/ziadkadry99/skapsec/internal/share"
	"github.com/ziadkadry99/skapsec/internal/theme"
)

// hintHeader is the client hint carrying the OS color-scheme preference.
const hintHeader = "Sec-CH-Prefers-Color-Scheme"

// maxFormBytes bounds form bodies held in memory.
const maxFormBytes = 1 << 20

// pageData is the input of the layout template.
type pageData struct {
	Title    string
	Active   string
	LivePage string
	Theme    theme.Mode
	Effects  template.JS

	Form     analysis.Request
	Compare  analysis.ComparisonRequest
	View     render.View
	Content  template.HTML
	Examples []example
}

// example is a prefilled analyzer link on the home page.
type example struct {
	Label string
	URL   string
}

var homeExamples = []struct {
	label string
	req   analysis.Request
}{
	{"Legit Example", analysis.Request{
		CompanyName:      "Acme Corp",
		Symbol:           "ACME",
		AnnouncementText: "We are pleased to announce a new strategic partnership with Globex Inc. Quarterly earnings in line with expectations.",
	}},
	{"Suspicious Example", analysis.Request{
		CompanyName:      "Alpha Invest",
		Symbol:           "ALPH",
		AnnouncementText: "Unprecedented returns guaranteed! Act now for insider opportunity to skyrocket your wealth with no risk.",
	}},
}

func (w *Web) handleHome(rw http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Home"}
	for _, ex := range homeExamples {
		data.Examples = append(data.Examples, example{
			Label: ex.label,
			URL:   share.BuildURL("", "/"+PageAnalyzer, ex.req),
		})
	}
	w.renderPage(rw, r, PageHome, data)
}

func (w *Web) handleAbout(rw http.ResponseWriter, r *http.Request) {
	w.renderPage(rw, r, PageAbout, pageData{Title: "About", Content: w.about})
}

func (w *Web) handleAnalyzer(rw http.ResponseWriter, r *http.Request) {
	w.renderPage(rw, r, PageAnalyzer, pageData{
		Title:    "Analyzer",
		LivePage: PageAnalyzer,
		Form:     deeplink.ReadRawQuery(r.URL.RawQuery),
	})
}

// handleAnalyzerSubmit is the no-script path: the form posts here and the
// settled state is rendered as a full page.
func (w *Web) handleAnalyzerSubmit(rw http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(rw, "invalid form", http.StatusBadRequest)
		return
	}
	req := analysis.RequestFromValues(r.PostForm, "")

	var ref exportRef
	ctrl := pipeline.NewController(w.client, nil)
	ctrl.OnSettled(w.recorder(r.Context(), clientID(r), history.KindAnalyze, &ref))
	if err := ctrl.Submit(r.Context(), req); err != nil {
		w.log.WithError(err).Warn("analyzer submit")
	}

	s, _ := ctrl.Settled()
	view := render.BuildView(s)
	view.Actions = &render.Actions{
		ShareURL:  share.BuildURL(w.origin(r), "/"+PageAnalyzer, req),
		ExportURL: exportURL(PageAnalyzer, ref.get()),
		CopyLabel: render.ShareLabel,
	}
	w.renderPage(rw, r, PageAnalyzer, pageData{
		Title:    "Analyzer",
		LivePage: PageAnalyzer,
		Form:     req,
		View:     view,
	})
}

func (w *Web) handleCompare(rw http.ResponseWriter, r *http.Request) {
	w.renderPage(rw, r, PageCompare, pageData{
		Title:    "Compare",
		LivePage: PageCompare,
		Compare:  deeplink.ReadComparison(r.URL.Query()),
	})
}

func (w *Web) handleCompareSubmit(rw http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(rw, "invalid form", http.StatusBadRequest)
		return
	}
	req := analysis.ComparisonRequest{
		Left:  analysis.RequestFromValues(r.PostForm, analysis.PrefixLeft),
		Right: analysis.RequestFromValues(r.PostForm, analysis.PrefixRight),
	}

	var ref exportRef
	cc := pipeline.NewCompareController(w.client, nil)
	cc.OnSettled(w.recorder(r.Context(), clientID(r), history.KindCompare, &ref))
	if err := cc.Submit(r.Context(), req); err != nil {
		w.log.WithError(err).Warn("compare submit")
	}

	s, _ := cc.Settled()
	view := render.BuildView(s)
	view.Actions = &render.Actions{ExportURL: exportURL(PageCompare, ref.get())}
	w.renderPage(rw, r, PageCompare, pageData{
		Title:    "Compare",
		LivePage: PageCompare,
		Compare:  req,
		View:     view,
	})
}

// handleExport downloads the recorded result named by the id parameter.
// The entry must belong to the requesting client and be of kind.
func (w *Web) handleExport(kind history.Kind) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if w.history == nil || id == "" {
			http.Error(rw, "no result to export", http.StatusNotFound)
			return
		}
		entry, err := w.history.Get(r.Context(), clientID(r), id)
		if errors.Is(err, history.ErrNotFound) || (err == nil && entry.Kind != kind) {
			http.Error(rw, "no result to export", http.StatusNotFound)
			return
		}
		if err != nil {
			w.log.WithError(err).Error("loading recorded result")
			http.Error(rw, "could not load result", http.StatusInternalServerError)
			return
		}

		body, err := share.ExportJSON(analysis.Outcome{Raw: entry.Body})
		if err != nil {
			w.log.WithError(err).Error("exporting result")
			http.Error(rw, "could not export result", http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", share.ExportContentType)
		rw.Header().Set("Content-Disposition", `attachment; filename="`+share.ExportFilename+`"`)
		rw.Write(body)
	}
}

// handleThemeToggle flips the stored theme and returns to the page the
// toggle was pressed on.
func (w *Web) handleThemeToggle(rw http.ResponseWriter, r *http.Request) {
	ctrl := w.themeFor(r)
	if _, err := ctrl.Toggle(r.Context()); err != nil {
		w.log.WithError(err).Warn("toggling theme")
	}
	http.Redirect(rw, r, sameSiteReferer(r), http.StatusSeeOther)
}

// sameSiteReferer returns the path of the referring page when it belongs
// to this host, and "/" otherwise.
func sameSiteReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

// themeFor loads the client's theme. If the stored value cannot be read
// the page falls back to an unsaved controller.
func (w *Web) themeFor(r *http.Request) *theme.Controller {
	pref := theme.PreferenceFromHint(r.Header.Get(hintHeader))
	if w.prefs != nil {
		ctrl, err := theme.New(r.Context(), w.prefs.ForClient(clientID(r)), pref)
		if err == nil {
			return ctrl
		}
		w.log.WithError(err).Warn("reading theme preference")
	}
	ctrl, _ := theme.New(r.Context(), theme.NewMemoryStore(), pref)
	return ctrl
}

// exportURL links the Download JSON button to one history entry. An empty
// id means nothing was recorded and no link is shown.
func exportURL(page, id string) string {
	if id == "" {
		return ""
	}
	return "/" + page + "/export?id=" + url.QueryEscape(id)
}

// exportRef holds the history entry recorded for the most recent settled
// state, so the rendered result links to exactly that entry.
type exportRef struct {
	mu sync.Mutex
	id string
}

func (e *exportRef) set(id string) {
	e.mu.Lock()
	e.id = id
	e.mu.Unlock()
}

func (e *exportRef) get() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// recorder returns a settle hook that stores each terminal state in the
// client's history and points ref at the new entry. The hook runs before
// the state is rendered.
func (w *Web) recorder(ctx context.Context, client string, kind history.Kind, ref *exportRef) func(pipeline.State) {
	ctx = context.WithoutCancel(ctx)
	return func(s pipeline.State) {
		ref.set("")
		if w.history == nil {
			return
		}
		o, err := share.OutcomeFromState(s)
		if err != nil {
			return
		}
		entry := history.Entry{
			ClientID:    client,
			Kind:        kind,
			CompanyName: s.Request.CompanyName,
			Symbol:      s.Request.Symbol,
			IsError:     s.Phase == pipeline.PhaseFailure,
			Body:        o.Raw,
		}
		if s.IsComparison() {
			entry.CompanyName = s.Comparison.Left.CompanyName + " / " + s.Comparison.Right.CompanyName
			entry.Symbol = s.Comparison.Left.Symbol + " / " + s.Comparison.Right.Symbol
			entry.IsError = s.Left.Failed() || s.Right.Failed()
		}
		id, err := w.history.Record(ctx, entry)
		if err != nil {
			w.log.WithError(err).Warn("recording result")
			return
		}
		ref.set(id)
	}
}

func (w *Web) renderPage(rw http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Active = page
	data.Theme = w.themeFor(r).Theme()
	data.Effects = w.effects

	var buf bytes.Buffer
	if err := w.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		w.log.WithError(err).WithField("page", page).Error("rendering page")
		http.Error(rw, "internal error", http.StatusInternalServerError)
		return
	}

	h := rw.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Accept-CH", hintHeader)
	h.Set("Vary", hintHeader)
	rw.Write(buf.Bytes())
}

// parseForm accepts both multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormBytes)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}
