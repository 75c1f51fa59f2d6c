package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/animate"
	"github.com/ziadkadry99/skapsec/internal/history"
	"github.com/ziadkadry99/skapsec/internal/pipeline"
	"github.com/ziadkadry99/skapsec/internal/render"
	"github.com/ziadkadry99/skapsec/internal/share"
	"github.com/ziadkadry99/skapsec/internal/theme"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// Inbound message types.
const (
	msgSubmit    = "submit"
	msgShare     = "share"
	msgClipboard = "clipboard"
	msgTheme     = "theme"
	msgReplay    = "replay"
)

// Outbound message types.
const (
	opPatch     = "patch"
	opFrame     = "frame"
	opPop       = "pop"
	opClipboard = "clipboard"
	opLabel     = "label"
	opTheme     = "theme"
	opError     = "error"
)

// Patch targets on the analyzer and compare pages.
const (
	targetLoader  = "#loader-slot"
	targetResult  = "#result-slot"
	targetCompare = "#compare-slot"
	targetShare   = `[data-action="share"]`
)

// liveRequest is the incoming WebSocket message format.
type liveRequest struct {
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
	ID     uint64            `json:"id,omitempty"`
	OK     bool              `json:"ok,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// liveOp is the outgoing WebSocket message format.
type liveOp struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	HTML   string `json:"html,omitempty"`
	Value  int    `json:"value,omitempty"`
	ID     uint64 `json:"id,omitempty"`
	Text   string `json:"text,omitempty"`
	Theme  string `json:"theme,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Label  string `json:"label,omitempty"`
}

// MarshalJSON keeps "value" on frames even when it is zero.
func (op liveOp) MarshalJSON() ([]byte, error) {
	type plain liveOp
	if op.Type != opFrame {
		return json.Marshal(plain(op))
	}
	return json.Marshal(struct {
		plain
		Value int `json:"value"`
	}{plain(op), op.Value})
}

func scoreTarget(slot string) string {
	return `[data-slot="` + slot + `"] .score-value`
}

func circleTarget(slot string) string {
	return `[data-slot="` + slot + `"]`
}

// session is one open analyzer or compare page. The reader goroutine
// dispatches messages; submissions and clipboard waits run on their own
// goroutines so the reader keeps serving acknowledgements.
type session struct {
	w      *Web
	conn   *websocket.Conn
	page   string
	origin string
	log    *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	analyze *pipeline.Controller
	compare *pipeline.CompareController
	export  exportRef

	gate      render.AnimationGate
	animators map[string]*animate.Animator
	copier    *share.Copier
	theme     *theme.Controller

	writeMu sync.Mutex

	pendMu  sync.Mutex
	pending map[uint64]chan error
	nextID  uint64
}

func (w *Web) handleLive(rw http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page != PageAnalyzer && page != PageCompare {
		http.Error(rw, "unknown page", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.WithError(err).Warn("websocket upgrade")
		return
	}

	s := w.newSession(r, conn, page)
	defer s.close()
	s.run()
}

func (w *Web) newSession(r *http.Request, conn *websocket.Conn, page string) *session {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	s := &session{
		w:       w,
		conn:    conn,
		page:    page,
		origin:  w.origin(r),
		log:     w.log.WithFields(logrus.Fields{"client": clientID(r), "page": page}),
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]chan error),
	}

	var animOpts []animate.Option
	if w.opts.AnimationDuration > 0 {
		animOpts = append(animOpts, animate.WithDuration(w.opts.AnimationDuration))
	}
	s.animators = map[string]*animate.Animator{
		render.SlotMain:  animate.New(animOpts...),
		render.SlotLeft:  animate.New(animOpts...),
		render.SlotRight: animate.New(animOpts...),
	}

	if page == PageCompare {
		s.compare = pipeline.NewCompareController(w.client, s)
		s.compare.OnSettled(w.recorder(ctx, clientID(r), history.KindCompare, &s.export))
	} else {
		s.analyze = pipeline.NewController(w.client, s)
		s.analyze.OnSettled(w.recorder(ctx, clientID(r), history.KindAnalyze, &s.export))
	}

	var copyOpts []share.CopierOption
	if w.opts.ConfirmDuration > 0 {
		copyOpts = append(copyOpts, share.WithConfirmDuration(w.opts.ConfirmDuration))
	}
	s.copier = share.NewCopier(liveClipboard{s}, func(label string) {
		s.send(liveOp{Type: opLabel, Target: targetShare, Text: label})
	}, copyOpts...)

	s.theme = w.themeFor(r)
	s.theme.OnChange(func(m theme.Mode) {
		s.send(liveOp{Type: opTheme, Theme: string(m), Icon: m.Icon(), Label: m.Label()})
	})
	return s
}

func (s *session) run() {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("websocket read")
			}
			return
		}

		var req liveRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(liveOp{Type: opError, Text: "invalid message format"})
			continue
		}

		switch req.Type {
		case msgSubmit:
			go s.submit(req.Fields)
		case msgShare:
			go s.share(req.Fields)
		case msgClipboard:
			s.resolve(req)
		case msgTheme:
			if _, err := s.theme.Toggle(s.ctx); err != nil {
				s.log.WithError(err).Warn("toggling theme")
				s.send(liveOp{Type: opError, Text: "could not save theme"})
			}
		case msgReplay:
			s.replay()
		default:
			s.send(liveOp{Type: opError, Text: "unknown message type: " + req.Type})
		}
	}
}

func (s *session) close() {
	s.cancel()
	if s.analyze != nil {
		s.analyze.Detach()
	}
	if s.compare != nil {
		s.compare.Detach()
	}
	for _, a := range s.animators {
		a.Stop()
	}
	s.copier.Close()

	s.pendMu.Lock()
	for id, ch := range s.pending {
		ch <- errors.New("session closed")
		delete(s.pending, id)
	}
	s.pendMu.Unlock()

	s.conn.Close()
}

// submit runs one submission. The outbound call is not tied to the socket:
// if the page goes away the response is discarded by the controller.
func (s *session) submit(fields map[string]string) {
	values := toValues(fields)

	var err error
	if s.compare != nil {
		err = s.compare.Submit(context.Background(), analysis.ComparisonRequest{
			Left:  analysis.RequestFromValues(values, analysis.PrefixLeft),
			Right: analysis.RequestFromValues(values, analysis.PrefixRight),
		})
	} else {
		err = s.analyze.Submit(context.Background(), analysis.RequestFromValues(values, ""))
	}

	switch {
	case errors.Is(err, pipeline.ErrInFlight):
		s.log.Debug("submission ignored while loading")
	case errors.Is(err, pipeline.ErrDetached):
		s.log.Debug("session closed before response")
	}
}

// share copies a link built from the form values at the time of the click.
func (s *session) share(fields map[string]string) {
	if s.analyze == nil {
		return
	}
	if _, ok := s.analyze.Settled(); !ok {
		s.log.Debug("share requested before any result")
		return
	}
	req := analysis.RequestFromValues(toValues(fields), "")

	ctx, cancel := context.WithTimeout(s.ctx, s.w.opts.ClipboardTimeout)
	defer cancel()
	s.copier.Copy(ctx, share.BuildURL(s.origin, "/"+PageAnalyzer, req))
}

// replay re-renders the current result and runs its animation again.
func (s *session) replay() {
	var st pipeline.State
	if s.analyze != nil {
		st = s.analyze.State()
	} else {
		st = s.compare.State()
	}
	if !st.Terminal() {
		return
	}
	s.gate.Replay()
	s.Render(st)
}

// Render implements pipeline.Renderer by patching the page.
func (s *session) Render(st pipeline.State) {
	v := render.BuildView(st)
	play := s.gate.ShouldAnimate(st)
	if play {
		for _, sc := range v.Scores() {
			sc.Shown = 0
		}
	}

	loader, err := s.w.html.FragmentString(render.FragmentLoader, v)
	if err != nil {
		s.log.WithError(err).Error("rendering loader")
		return
	}
	s.send(liveOp{Type: opPatch, Target: targetLoader, HTML: loader})

	name, target := render.FragmentResult, targetResult
	switch {
	case s.page == PageCompare:
		name, target = render.FragmentCompare, targetCompare
		if st.Terminal() {
			v.Actions = &render.Actions{ExportURL: exportURL(PageCompare, s.export.get())}
		}
	case st.Terminal():
		v.Actions = &render.Actions{
			ShareURL:  share.BuildURL(s.origin, "/"+PageAnalyzer, st.Request),
			ExportURL: exportURL(PageAnalyzer, s.export.get()),
			CopyLabel: render.ShareLabel,
		}
	}
	html, err := s.w.html.FragmentString(name, v)
	if err != nil {
		s.log.WithError(err).Error("rendering result")
		return
	}
	s.send(liveOp{Type: opPatch, Target: target, HTML: html})

	if !play {
		return
	}
	for _, sc := range v.Scores() {
		slot := sc.Slot
		s.send(liveOp{Type: opPop, Target: circleTarget(slot)})
		s.animators[slot].Start(s.ctx, sc.Value, func(n int) {
			s.send(liveOp{Type: opFrame, Target: scoreTarget(slot), Value: n})
		})
	}
}

func (s *session) send(op liveOp) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(op); err != nil {
		s.log.WithError(err).Debug("websocket write")
	}
}

// await registers a clipboard request and returns its ID and reply channel.
func (s *session) await() (uint64, chan error) {
	s.pendMu.Lock()
	defer s.pendMu.Unlock()
	s.nextID++
	ch := make(chan error, 1)
	s.pending[s.nextID] = ch
	return s.nextID, ch
}

func (s *session) forget(id uint64) {
	s.pendMu.Lock()
	delete(s.pending, id)
	s.pendMu.Unlock()
}

func (s *session) resolve(req liveRequest) {
	s.pendMu.Lock()
	ch, ok := s.pending[req.ID]
	delete(s.pending, req.ID)
	s.pendMu.Unlock()
	if !ok {
		return
	}
	if req.OK {
		ch <- nil
		return
	}
	msg := req.Error
	if msg == "" {
		msg = "clipboard write rejected"
	}
	ch <- errors.New(msg)
}

// liveClipboard asks the browser to write to its clipboard and waits for
// the acknowledgement.
type liveClipboard struct {
	s *session
}

func (c liveClipboard) WriteText(ctx context.Context, text string) error {
	id, ch := c.s.await()
	defer c.s.forget(id)

	c.s.send(liveOp{Type: opClipboard, ID: id, Text: text})
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toValues(fields map[string]string) url.Values {
	v := make(url.Values, len(fields))
	for k, val := range fields {
		v.Set(k, val)
	}
	return v
}
