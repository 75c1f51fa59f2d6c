// Package theme owns the persisted light/dark preference. All reads and
// writes of the stored value go through Controller.
package theme

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StorageKey is the single key the mode is persisted under.
const StorageKey = "theme"

// Mode is the active color scheme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// ParseMode accepts only the two persisted values.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case Light, Dark:
		return Mode(s), true
	}
	return "", false
}

// Opposite returns the mode a toggle would switch to.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Icon and Label describe the toggle button, which offers the other mode.
func (m Mode) Icon() string {
	if m == Dark {
		return "🌞"
	}
	return "🌙"
}

func (m Mode) Label() string {
	if m == Dark {
		return "Light"
	}
	return "Dark"
}

// Preference is the operating system color-scheme hint.
type Preference int

const (
	PreferenceUnknown Preference = iota
	PreferenceLight
	PreferenceDark
)

// PreferenceFromHint parses a Sec-CH-Prefers-Color-Scheme header value.
func PreferenceFromHint(v string) Preference {
	switch strings.Trim(strings.TrimSpace(v), `"`) {
	case "dark":
		return PreferenceDark
	case "light":
		return PreferenceLight
	}
	return PreferenceUnknown
}

// Storage persists string values by key.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Controller holds the current mode for one client.
type Controller struct {
	mu       sync.Mutex
	store    Storage
	mode     Mode
	onChange func(Mode)
}

// New initialises the mode from storage, falling back to the OS preference
// and finally to Light. An unrecognised stored value counts as absent.
func New(ctx context.Context, store Storage, pref Preference) (*Controller, error) {
	c := &Controller{store: store, mode: Light}

	v, ok, err := store.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	if m, valid := ParseMode(v); ok && valid {
		c.mode = m
		return c, nil
	}
	if pref == PreferenceDark {
		c.mode = Dark
	}
	return c, nil
}

// Theme returns the current mode.
func (c *Controller) Theme() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// OnChange registers the callback that reflects a new mode in the rendered
// output. It is invoked synchronously after each successful toggle.
func (c *Controller) OnChange(fn func(Mode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Toggle flips the mode and persists it before returning. On a storage
// failure the mode is left unchanged.
func (c *Controller) Toggle(ctx context.Context) (Mode, error) {
	c.mu.Lock()
	next := c.mode.Opposite()
	if err := c.store.Set(ctx, StorageKey, string(next)); err != nil {
		c.mu.Unlock()
		return c.Theme(), fmt.Errorf("persisting theme: %w", err)
	}
	c.mode = next
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next, nil
}
