package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/logger"
	"github.com/ziadkadry99/skapsec/internal/scoring"
)

var (
	// ErrInFlight is returned when Submit is called while a request from
	// the same form is still outstanding. No request is issued.
	ErrInFlight = errors.New("submission already in flight")

	// ErrDetached is returned when the view was detached while the request
	// was outstanding; the response was discarded.
	ErrDetached = errors.New("view detached before response arrived")
)

// Controller drives one form instance. At most one request is in flight;
// every transition is pushed to the bound Renderer outside the lock.
type Controller struct {
	svc      scoring.Service
	renderer Renderer
	log      *logrus.Entry

	mu        sync.Mutex
	state     State
	settled   State
	hasResult bool
	gen       uint64
	onSettled func(State)
}

// NewController binds a service to a renderer. A nil renderer is allowed.
func NewController(svc scoring.Service, r Renderer) *Controller {
	if r == nil {
		r = RendererFunc(func(State) {})
	}
	return &Controller{
		svc:      svc,
		renderer: r,
		log:      logger.WithComponent("pipeline"),
	}
}

// OnSettled registers a hook invoked with every terminal state before it is
// rendered.
func (c *Controller) OnSettled(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSettled = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settled returns the most recent terminal state and whether one has ever
// been reached.
func (c *Controller) Settled() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled, c.hasResult
}

// Submit runs one analysis.
func (c *Controller) Submit(ctx context.Context, req analysis.Request) error {
	stamp := func(s *State) { s.Request = req }
	return c.run(ctx, req.Validate, stamp, func(ctx context.Context) (State, error) {
		o, err := c.svc.Analyze(ctx, req)
		if err != nil {
			return State{}, err
		}
		if o.IsError() {
			return State{Phase: PhaseFailure, Kind: KindServer, Message: o.Error, Outcome: o}, nil
		}
		return State{Phase: PhaseSuccess, Outcome: o}, nil
	})
}

// SubmitComparison runs a side-by-side comparison in one request. Once the
// service answers, each panel succeeds or fails on its own.
func (c *Controller) SubmitComparison(ctx context.Context, req analysis.ComparisonRequest) error {
	stamp := func(s *State) { s.Comparison = req }
	return c.run(ctx, req.Validate, stamp, func(ctx context.Context) (State, error) {
		cmp, err := c.svc.Compare(ctx, req)
		if err != nil {
			return State{}, err
		}
		return State{
			Phase: PhaseSuccess,
			Left:  &Panel{Outcome: cmp.Left},
			Right: &Panel{Outcome: cmp.Right},
		}, nil
	})
}

// Detach marks the view as gone. A response still in flight will be
// discarded instead of rendered, and the controller returns to Idle.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = State{Phase: PhaseIdle, Seq: c.state.Seq + 1}
}

func (c *Controller) run(ctx context.Context, validate func() error, stamp func(*State), call func(context.Context) (State, error)) error {
	c.mu.Lock()
	if c.state.Phase == PhaseLoading {
		c.mu.Unlock()
		return ErrInFlight
	}

	if err := validate(); err != nil {
		failed := State{Phase: PhaseFailure, Kind: KindValidation, Message: MessageMissingFields}
		stamp(&failed)
		s := c.settleLocked(failed)
		hook := c.onSettled
		c.mu.Unlock()
		c.emit(s, hook)
		return nil
	}

	loading := State{Phase: PhaseLoading}
	stamp(&loading)
	loading = c.enterLocked(loading)
	gen := c.gen
	c.mu.Unlock()
	c.renderer.Render(loading)

	next, err := call(ctx)
	if err != nil {
		c.log.WithError(err).Error("scoring request failed")
		next = State{Phase: PhaseFailure, Kind: KindTransport, Message: MessageUnexpected}
	}
	stamp(&next)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.WithField("phase", next.Phase.String()).Debug("discarding response for detached view")
		return ErrDetached
	}
	s := c.settleLocked(next)
	hook := c.onSettled
	c.mu.Unlock()

	c.emit(s, hook)
	return nil
}

func (c *Controller) emit(s State, hook func(State)) {
	if hook != nil {
		hook(s)
	}
	c.renderer.Render(s)
}

func (c *Controller) enterLocked(s State) State {
	s.Seq = c.state.Seq + 1
	c.state = s
	return s
}

func (c *Controller) settleLocked(s State) State {
	s = c.enterLocked(s)
	c.settled = s
	c.hasResult = true
	return s
}
