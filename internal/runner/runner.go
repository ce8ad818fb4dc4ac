// Package runner drives the display: splash, then collect, lay out and
// show the relay status on a fixed interval until interrupted.
package runner

import (
	"context"
	"image"
	"time"

	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/layout"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/render"
	"github.com/rileyhilliard/relaystat/internal/status"
)

// Defaults match the e-paper reference build.
const (
	DefaultInterval       = 60 * time.Second
	DefaultSplashDuration = 3 * time.Second
	DefaultCollectTimeout = 30 * time.Second
)

// Source produces one status snapshot per call.
type Source interface {
	Collect(ctx context.Context) (*status.Snapshot, error)
}

// Display is the part of render.Screen the loop uses.
type Display interface {
	Init() error
	Canvas() (width, height int)
	Measurer() layout.Measurer
	Show(plan layout.Plan) error
	ShowImage(img image.Image) error
	Close() error
}

// Options configures a Runner. Zero durations take the defaults.
type Options struct {
	Interval       time.Duration
	CollectTimeout time.Duration
	SplashPath     string
	SplashDuration time.Duration
	Log            logger.Logger
}

// Runner owns the display and the poll loop. It is single-threaded: one
// collection and one flush at a time, nothing held across the sleep.
type Runner struct {
	source  Source
	display Display
	opts    Options
	log     logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Runner.
func New(source Source, display Display, opts Options) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.CollectTimeout <= 0 {
		opts.CollectTimeout = DefaultCollectTimeout
	}
	if opts.SplashDuration <= 0 {
		opts.SplashDuration = DefaultSplashDuration
	}
	return &Runner{
		source:  source,
		display: display,
		opts:    opts,
		log:     logger.OrNoop(opts.Log),
		sleep:   sleepContext,
	}
}

// Run initializes the display, shows the splash and then refreshes the
// status every interval until ctx is cancelled.
//
// Cancellation is only observed while waiting, never in the middle of a
// cycle. It ends the run cleanly with a nil error. Display init and flush
// failures are returned; a failed collection only skips its cycle.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.display.Init(); err != nil {
		return err
	}
	defer r.close()

	shown, err := r.showSplash()
	if err != nil {
		return err
	}
	if shown {
		if err := r.sleep(ctx, r.opts.SplashDuration); err != nil {
			r.log.Info("Exiting...")
			return nil
		}
	}

	for {
		if err := r.cycle(ctx); err != nil {
			return err
		}
		if err := r.sleep(ctx, r.opts.Interval); err != nil {
			r.log.Info("Exiting...")
			return nil
		}
	}
}

// Once renders a single frame and returns. Unlike Run, a failed
// collection is returned as an error.
func (r *Runner) Once(ctx context.Context) error {
	if err := r.display.Init(); err != nil {
		return err
	}
	defer r.close()

	snap, err := r.collect(ctx)
	if err != nil {
		return err
	}
	return r.show(snap)
}

func (r *Runner) cycle(ctx context.Context) error {
	snap, err := r.collect(ctx)
	if err != nil {
		r.log.Error("Skipping update, status unavailable: %v", err)
		return nil
	}
	return r.show(snap)
}

// collect runs detached from ctx so an interrupt never cuts a control
// session short; the collect timeout still bounds it.
func (r *Runner) collect(ctx context.Context) (*status.Snapshot, error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.CollectTimeout)
	defer cancel()
	return r.source.Collect(cctx)
}

func (r *Runner) show(snap *status.Snapshot) error {
	w, h := r.display.Canvas()
	plan := layout.Layout(snap, w, h, r.display.Measurer())

	r.log.Info("Displaying status...")
	if err := r.display.Show(plan); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			"Failed to update the display",
			"Check the display connection; relaystat exits so a supervisor can restart it")
	}
	return nil
}

// showSplash flushes the splash image if one is configured. An image that
// can't be loaded is skipped.
func (r *Runner) showSplash() (bool, error) {
	if r.opts.SplashPath == "" {
		return false, nil
	}
	w, h := r.display.Canvas()
	img, err := render.LoadSplash(r.opts.SplashPath, w, h)
	if err != nil {
		r.log.Warn("Skipping splash screen: %v", err)
		return false, nil
	}
	if err := r.display.ShowImage(img); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrRender,
			"Failed to show the splash screen",
			"Check the display connection")
	}
	return true, nil
}

func (r *Runner) close() {
	if err := r.display.Close(); err != nil {
		r.log.Warn("Closing display: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
