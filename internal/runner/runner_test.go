package runner

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/render"
	rtesting "github.com/rileyhilliard/relaystat/internal/render/testing"
	"github.com/rileyhilliard/relaystat/internal/status"
)

// fakeSource returns results in order, repeating the last one.
type fakeSource struct {
	results   []result
	calls     int
	deadlines []bool
	ctxErrs   []error
}

type result struct {
	snap *status.Snapshot
	err  error
}

func (f *fakeSource) Collect(ctx context.Context) (*status.Snapshot, error) {
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())

	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i].snap, f.results[i].err
}

func okSnapshot() *status.Snapshot {
	return &status.Snapshot{
		Version:      status.Known("0.4.8"),
		Nickname:     "testnode",
		BytesRead:    status.Known(int64(500000)),
		BytesWritten: status.Known(int64(400000)),
		Quota:        status.Known(int64(2097152)),
	}
}

// stopAfter returns a sleep hook that records durations and cancels ctx
// once n sleeps have completed.
func stopAfter(n int, cancel context.CancelFunc, slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		if len(*slept) > n {
			cancel()
			return ctx.Err()
		}
		return nil
	}
}

type harness struct {
	driver *rtesting.FakeDriver
	source *fakeSource
	log    *logger.BufferLogger
	runner *Runner
	slept  []time.Duration
	ctx    context.Context
	cancel context.CancelFunc
}

func newHarness(t *testing.T, opts Options, results ...result) *harness {
	t.Helper()
	h := &harness{
		driver: rtesting.NewFakeDriver(250, 122),
		source: &fakeSource{results: results},
		log:    logger.NewBufferLogger(),
	}
	opts.Log = h.log
	screen := render.NewScreen(h.driver, render.ScreenOptions{})
	h.runner = New(h.source, screen, opts)
	h.ctx, h.cancel = context.WithCancel(context.Background())
	t.Cleanup(h.cancel)
	return h
}

func writeSplash(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	img.Set(0, 0, color.White)
	path := filepath.Join(t.TempDir(), "splash.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestRun_PollsUntilInterrupted(t *testing.T) {
	h := newHarness(t, Options{}, result{snap: okSnapshot()})
	h.runner.sleep = stopAfter(2, h.cancel, &h.slept)

	err := h.runner.Run(h.ctx)

	require.NoError(t, err, "interrupt is a graceful exit")
	assert.Equal(t, 3, h.source.calls)
	assert.Equal(t, 3, h.driver.FrameCount())
	assert.Equal(t, []time.Duration{DefaultInterval, DefaultInterval, DefaultInterval}, h.slept)
	assert.True(t, h.driver.Closed)
	assert.True(t, h.log.Contains("info", "Displaying status..."))
	assert.True(t, h.log.Contains("info", "Exiting..."))
}

func TestRun_CollectFailureSkipsCycle(t *testing.T) {
	sessionErr := errors.New(errors.ErrControl, "Can't open a control port session", "")
	h := newHarness(t, Options{Interval: time.Second},
		result{err: sessionErr},
		result{snap: okSnapshot()},
	)
	h.runner.sleep = stopAfter(1, h.cancel, &h.slept)

	err := h.runner.Run(h.ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, h.source.calls)
	assert.Equal(t, 1, h.driver.FrameCount(), "failed cycle draws nothing")
	assert.Equal(t, []time.Duration{time.Second, time.Second}, h.slept)
	assert.True(t, h.log.Contains("error", "Skipping update"))
}

func TestRun_RenderFailureIsFatal(t *testing.T) {
	h := newHarness(t, Options{}, result{snap: okSnapshot()})
	h.driver.DisplayErrs[1] = assert.AnError
	h.runner.sleep = stopAfter(10, h.cancel, &h.slept)

	err := h.runner.Run(h.ctx)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRender))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, h.source.calls)
	assert.True(t, h.driver.Closed, "display released on fatal error")
}

func TestRun_InitFailure(t *testing.T) {
	h := newHarness(t, Options{}, result{snap: okSnapshot()})
	h.driver.InitErr = assert.AnError

	err := h.runner.Run(h.ctx)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDisplay))
	assert.Equal(t, 0, h.source.calls)
	assert.False(t, h.driver.Closed, "nothing to release")
}

func TestRun_Splash(t *testing.T) {
	h := newHarness(t, Options{SplashPath: writeSplash(t)}, result{snap: okSnapshot()})
	h.runner.sleep = stopAfter(1, h.cancel, &h.slept)

	require.NoError(t, h.runner.Run(h.ctx))

	assert.Equal(t, 2, h.driver.FrameCount(), "splash then one status frame")
	assert.Equal(t, DefaultSplashDuration, h.slept[0])
	assert.Equal(t, 1, h.source.calls)
}

func TestRun_InterruptDuringSplash(t *testing.T) {
	h := newHarness(t, Options{SplashPath: writeSplash(t)}, result{snap: okSnapshot()})
	h.runner.sleep = stopAfter(0, h.cancel, &h.slept)

	require.NoError(t, h.runner.Run(h.ctx))

	assert.Equal(t, 1, h.driver.FrameCount())
	assert.Equal(t, 0, h.source.calls)
	assert.True(t, h.driver.Closed)
}

func TestRun_MissingSplashIsSkipped(t *testing.T) {
	h := newHarness(t, Options{SplashPath: filepath.Join(t.TempDir(), "nope.png")}, result{snap: okSnapshot()})
	h.runner.sleep = stopAfter(0, h.cancel, &h.slept)

	require.NoError(t, h.runner.Run(h.ctx))

	assert.Equal(t, 1, h.driver.FrameCount(), "straight to the status frame")
	assert.Equal(t, []time.Duration{DefaultInterval}, h.slept)
	assert.True(t, h.log.Contains("warn", "Skipping splash"))
}

func TestRun_CollectIgnoresInterrupt(t *testing.T) {
	h := newHarness(t, Options{CollectTimeout: 5 * time.Second}, result{snap: okSnapshot()})
	h.cancel()
	h.runner.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	require.NoError(t, h.runner.Run(h.ctx))

	require.Len(t, h.source.ctxErrs, 1)
	assert.NoError(t, h.source.ctxErrs[0], "a cycle already started is not cut short")
	assert.True(t, h.source.deadlines[0], "collect timeout applied")
	assert.Equal(t, 1, h.driver.FrameCount())
}

func TestOnce(t *testing.T) {
	h := newHarness(t, Options{}, result{snap: okSnapshot()})

	require.NoError(t, h.runner.Once(h.ctx))

	assert.Equal(t, 1, h.driver.FrameCount())
	assert.True(t, h.driver.Closed)
}

func TestOnce_CollectFailure(t *testing.T) {
	h := newHarness(t, Options{}, result{err: errors.New(errors.ErrControl, "no session", "")})

	err := h.runner.Once(h.ctx)

	assert.True(t, errors.IsCode(err, errors.ErrControl))
	assert.Equal(t, 0, h.driver.FrameCount())
	assert.True(t, h.driver.Closed)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
