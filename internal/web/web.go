// Package web serves the skapsec pages, proxies the scoring API and runs
// one live session per open page.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/skapsec/internal/effects"
	"github.com/ziadkadry99/skapsec/internal/history"
	"github.com/ziadkadry99/skapsec/internal/logger"
	"github.com/ziadkadry99/skapsec/internal/preferences"
	"github.com/ziadkadry99/skapsec/internal/render"
	"github.com/ziadkadry99/skapsec/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed content/about.md
var aboutMarkdown []byte

// Page names, also used for active-nav highlighting.
const (
	PageHome     = "home"
	PageAnalyzer = "analyzer"
	PageCompare  = "compare"
	PageAbout    = "about"
)

var pageNames = []string{PageHome, PageAnalyzer, PageCompare, PageAbout}

// Options tunes the web front-end.
type Options struct {
	// PublicOrigin is used in share links. Empty means derive it from the
	// request.
	PublicOrigin string
	// AnimationDuration overrides the score count-up length.
	AnimationDuration time.Duration
	// ConfirmDuration overrides how long "Copied!" stays up.
	ConfirmDuration time.Duration
	// ClipboardTimeout bounds a clipboard round-trip to the browser.
	ClipboardTimeout time.Duration
}

// Web holds the page templates and the stores behind them.
type Web struct {
	client  *scoring.Client
	prefs   *preferences.Store
	history *history.Store
	html    *render.HTML
	pages   map[string]*template.Template
	about   template.HTML
	effects template.JS
	opts    Options
	log     *logrus.Entry
}

// New parses the embedded templates and converts the About page.
func New(client *scoring.Client, prefs *preferences.Store, hist *history.Store, opts Options) (*Web, error) {
	if opts.ClipboardTimeout <= 0 {
		opts.ClipboardTimeout = 5 * time.Second
	}

	html, err := render.NewHTML()
	if err != nil {
		return nil, err
	}

	w := &Web{
		client:  client,
		prefs:   prefs,
		history: hist,
		html:    html,
		pages:   make(map[string]*template.Template, len(pageNames)),
		opts:    opts,
		log:     logger.WithComponent("web"),
	}

	if w.about, err = html.Markdown(aboutMarkdown); err != nil {
		return nil, err
	}
	if w.effects, err = effects.Default().JS(); err != nil {
		return nil, fmt.Errorf("encoding effects: %w", err)
	}

	base, err := html.Templates()
	if err != nil {
		return nil, fmt.Errorf("cloning fragments: %w", err)
	}
	if _, err := base.ParseFS(templateFS, "templates/layout.html"); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}
		w.pages[name] = t
	}
	return w, nil
}

// RegisterRoutes mounts all web routes onto the given router.
func (w *Web) RegisterRoutes(r chi.Router) {
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(w.identify)

		// Live sessions outlive any request timeout.
		r.Get("/ws", w.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/", w.handleHome)
			r.Get("/analyzer", w.handleAnalyzer)
			r.Post("/analyzer", w.handleAnalyzerSubmit)
			r.Get("/analyzer/export", w.handleExport(history.KindAnalyze))
			r.Get("/compare/export", w.handleExport(history.KindCompare))
			r.Get("/compare", w.handleCompare)
			r.Post("/compare", w.handleCompareSubmit)
			r.Get("/about", w.handleAbout)
			r.Post("/theme", w.handleThemeToggle)

			r.Post(scoring.AnalyzePath, w.proxy(scoring.AnalyzePath))
			r.Post(scoring.ComparePath, w.proxy(scoring.ComparePath))
		})
	})
}
