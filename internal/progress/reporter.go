// Package progress displays the animated credibility score in a terminal.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Meter shows one score counting up towards its final value.
type Meter interface {
	Start(label string, max int)
	Set(value int)
	Finish()
}

// NewMeter returns a BarMeter for interactive terminals, or a LineMeter if
// the CI environment variable is set.
func NewMeter(w io.Writer) Meter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &LineMeter{w: w}
	}
	return &BarMeter{w: w}
}

// BarMeter draws the score as a progress bar.
type BarMeter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBarMeter returns a BarMeter writing to w.
func NewBarMeter(w io.Writer) *BarMeter { return &BarMeter{w: w} }

func (m *BarMeter) Start(label string, max int) {
	m.bar = progressbar.NewOptions(max,
		progressbar.OptionSetWriter(m.w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
}

func (m *BarMeter) Set(value int) {
	if m.bar != nil {
		_ = m.bar.Set(value)
	}
}

// Finish leaves the bar at its last value. progressbar's own Finish would
// fill it to max, which misreports the score.
func (m *BarMeter) Finish() {
	if m.bar != nil {
		fmt.Fprintln(m.w)
		m.bar = nil
	}
}

// LineMeter prints only the final value, suitable for CI logs.
type LineMeter struct {
	w     io.Writer
	label string
	max   int
	value int
}

// NewLineMeter returns a LineMeter writing to w.
func NewLineMeter(w io.Writer) *LineMeter { return &LineMeter{w: w} }

func (m *LineMeter) Start(label string, max int) {
	m.label, m.max, m.value = label, max, 0
}

func (m *LineMeter) Set(value int) { m.value = value }

func (m *LineMeter) Finish() {
	fmt.Fprintf(m.w, "%s %d/%d\n", m.label, m.value, m.max)
}
