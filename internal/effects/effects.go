// Package effects configures the cosmetic page effects run by the static
// script. Nothing here depends on the analysis pipeline.
package effects

import (
	"encoding/json"
	"html/template"
)

// Reveal marks elements that fade in when they scroll into view.
type Reveal struct {
	Selectors    []string `json:"selectors"`
	Threshold    float64  `json:"threshold"`
	ClassReveal  string   `json:"class_reveal"`
	ClassVisible string   `json:"class_visible"`
}

// Transition fades between pages on internal link clicks. Clicks with a
// modifier key, "#" links and absolute URLs navigate immediately.
type Transition struct {
	DelayMS   int `json:"delay_ms"`
	ArrivalMS int `json:"arrival_ms"`
}

// Ripple draws ink where buttons are pressed.
type Ripple struct {
	Selectors  []string `json:"selectors"`
	LifetimeMS int      `json:"lifetime_ms"`
}

// Config is the full effects configuration handed to the page.
type Config struct {
	Reveal     Reveal     `json:"reveal"`
	Transition Transition `json:"transition"`
	Ripple     Ripple     `json:"ripple"`
}

// Default returns the standard effects.
func Default() Config {
	return Config{
		Reveal: Reveal{
			Selectors:    []string{".feature-card", ".hero-section", ".container", ".about-section"},
			Threshold:    0.08,
			ClassReveal:  "reveal",
			ClassVisible: "in-view",
		},
		Transition: Transition{DelayMS: 200, ArrivalMS: 250},
		Ripple: Ripple{
			Selectors:  []string{".cta-button", `input[type="submit"]`},
			LifetimeMS: 650,
		},
	}
}

// JS returns the configuration as a JSON literal safe to embed in a
// script element.
func (c Config) JS() (template.JS, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
