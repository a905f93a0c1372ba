// Package progress reports file processing progress, either through a
// counter carried in a context or a terminal progress bar.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Func is called to report progress.
// current is the number of items processed, total is the total count,
// and path is the item just completed.
type Func func(current, total int, path string)

// Tracker counts completed items. It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int32
	current  atomic.Int32
	callback Func
}

// NewTracker creates a tracker that invokes callback on each Tick.
func NewTracker(callback Func) *Tracker {
	return &Tracker{callback: callback}
}

// Add increments the total count by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int32(n))
}

// SetTotal replaces the total count.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int32(n))
}

// Tick marks one item as completed.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	total := int(t.total.Load())
	if t.callback != nil {
		t.callback(current, total, path)
	}
}

// Current returns the number of completed items.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the total count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the tracker, or nil if none was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}

// Bar wraps a terminal progress bar.
type Bar struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(label string) *Bar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Bar{bar: bar, label: label, out: os.Stderr}
}

// NewBar creates a progress bar with the given label and total count.
func NewBar(label string, total int) *Bar {
	return newBar(os.Stderr, label, total)
}

func newBar(w io.Writer, label string, total int) *Bar {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, label: label, out: w}
}

// Tick increments the bar by 1. Safe for concurrent use.
func (b *Bar) Tick() {
	_ = b.bar.Add(1)
}

// Tracker returns a context tracker that advances the bar.
func (b *Bar) Tracker() *Tracker {
	return NewTracker(func(int, int, string) { b.Tick() })
}

// FinishSuccess clears the bar completely.
func (b *Bar) FinishSuccess() {
	_ = b.bar.Finish()
	_ = b.bar.Clear()
}

// FinishSkipped clears the bar and prints a skip message.
func (b *Bar) FinishSkipped(reason string) {
	_ = b.bar.Finish()
	_ = b.bar.Clear()
	fmt.Fprintf(b.out, "  %s skipped (%s)\n", b.label, reason)
}

// FinishError clears the bar and prints an error message.
func (b *Bar) FinishError(err error) {
	_ = b.bar.Finish()
	_ = b.bar.Clear()
	fmt.Fprintf(b.out, "  %s error: %v\n", b.label, err)
}
