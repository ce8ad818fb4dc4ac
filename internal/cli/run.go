package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/relaystat/internal/config"
	"github.com/rileyhilliard/relaystat/internal/control"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/render"
	"github.com/rileyhilliard/relaystat/internal/runner"
	"github.com/rileyhilliard/relaystat/internal/status"
)

var runOnce bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the relay and refresh the display until interrupted",
	Long: `Initialize the display, show the splash image (if configured), then
collect the relay's status and redraw the display every interval.

A failed collection skips that refresh and is retried on the next one.
SIGINT or SIGTERM ends the loop at the next wait.

Examples:
  relaystat run
  relaystat run --once
  relaystat run --control 127.0.0.1:9151`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runCommand(ctx, cfg, runOnce)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "draw one frame and exit")
	rootCmd.AddCommand(runCmd)
}

// runCommand wires the collector, screen and runner for cfg.
func runCommand(ctx context.Context, cfg *config.Config, once bool) error {
	log := logger.NewEnvLogger("[runner]")
	if cfg.Source != "" {
		log.Debug("config: %s", cfg.Source)
	}

	collector := status.NewCollector(control.Dialer(cfg.ControlOptions()), cfg.Torrc, logger.NewEnvLogger("[status]"))
	collector.SetTimeout(cfg.CollectTimeout)

	driver, err := render.NewDriver(cfg.Display.Driver, render.DriverOptions{
		Device: cfg.Display.Device,
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		Out:    os.Stdout,
	})
	if err != nil {
		return err
	}
	screen := render.NewScreen(driver, render.ScreenOptions{
		Rotation: cfg.Display.Rotation,
		FontPath: cfg.Display.Font,
		FontSize: cfg.Display.FontSize,
		Log:      logger.NewEnvLogger("[render]"),
	})

	r := runner.New(collector, screen, runner.Options{
		Interval:       cfg.Interval,
		CollectTimeout: cfg.CollectTimeout,
		SplashPath:     cfg.Splash.Image,
		SplashDuration: cfg.Splash.Duration,
		Log:            log,
	})
	if once {
		return r.Once(ctx)
	}
	return r.Run(ctx)
}
