package share

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/skapsec/internal/logger"
)

// Share button labels.
const (
	RestLabel    = "Share Link"
	ConfirmLabel = "Copied!"
)

// DefaultConfirm is how long ConfirmLabel stays up after a copy.
const DefaultConfirm = 1200 * time.Millisecond

// Clipboard writes text to wherever the user can paste from.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

// Copier copies share links and drives the button label. Clipboard
// failures are logged and otherwise ignored.
type Copier struct {
	clip     Clipboard
	setLabel func(string)
	confirm  time.Duration
	log      *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithConfirmDuration overrides DefaultConfirm.
func WithConfirmDuration(d time.Duration) CopierOption {
	return func(c *Copier) { c.confirm = d }
}

// NewCopier returns a Copier. setLabel receives every label change and may
// be nil.
func NewCopier(clip Clipboard, setLabel func(string), opts ...CopierOption) *Copier {
	if setLabel == nil {
		setLabel = func(string) {}
	}
	c := &Copier{
		clip:     clip,
		setLabel: setLabel,
		confirm:  DefaultConfirm,
		log:      logger.WithComponent("share"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Copy writes text to the clipboard. On success the label switches to
// ConfirmLabel and reverts to RestLabel after the confirm duration. It
// reports whether the write succeeded.
func (c *Copier) Copy(ctx context.Context, text string) bool {
	if err := c.clip.WriteText(ctx, text); err != nil {
		c.log.WithError(err).Debug("clipboard write failed")
		return false
	}

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.setLabel(ConfirmLabel)
	c.timer = time.AfterFunc(c.confirm, func() { c.revert(gen) })
	c.mu.Unlock()
	return true
}

// Close cancels a pending revert.
func (c *Copier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Copier) revert(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.timer = nil
	c.setLabel(RestLabel)
}
