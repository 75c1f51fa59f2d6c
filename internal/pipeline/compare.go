package pipeline

import (
	"context"

	"github.com/ziadkadry99/skapsec/internal/analysis"
	"github.com/ziadkadry99/skapsec/internal/scoring"
)

// CompareController drives the side-by-side form. It shares the guard and
// transition logic of Controller.
type CompareController struct {
	c *Controller
}

// NewCompareController binds a service to a renderer for the compare form.
func NewCompareController(svc scoring.Service, r Renderer) *CompareController {
	return &CompareController{c: NewController(svc, r)}
}

// Submit runs one comparison. See Controller.SubmitComparison.
func (cc *CompareController) Submit(ctx context.Context, req analysis.ComparisonRequest) error {
	return cc.c.SubmitComparison(ctx, req)
}

func (cc *CompareController) State() State             { return cc.c.State() }
func (cc *CompareController) Settled() (State, bool)   { return cc.c.Settled() }
func (cc *CompareController) OnSettled(fn func(State)) { cc.c.OnSettled(fn) }
func (cc *CompareController) Detach()                  { cc.c.Detach() }
