package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/rileyhilliard/relaystat/internal/errors"
)

// Driver names accepted in display.driver.
var validDrivers = map[string]bool{
	"terminal": true,
	"fbdev":    true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("interval must be positive, got %s", cfg.Interval),
			"Set interval to a duration like 60s")
	}
	if cfg.CollectTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("collect_timeout must be positive, got %s", cfg.CollectTimeout),
			"Set collect_timeout to a duration like 30s")
	}
	if cfg.Torrc == "" {
		return errors.New(errors.ErrConfig,
			"torrc path is empty",
			"Point torrc at the relay's configuration, usually /etc/tor/torrc")
	}

	if err := validateControl(cfg.Control); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'control' section in your relaystat.yaml.")
	}
	if err := validateDisplay(cfg.Display); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'display' section in your relaystat.yaml.")
	}
	if cfg.Splash.Duration <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("splash.duration must be positive, got %s", cfg.Splash.Duration),
			"Leave splash.image empty to disable the splash instead.")
	}
	return nil
}

func validateControl(c ControlConfig) error {
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("control.address %q is not host:port", c.Address)
	}
	if host == "" {
		return fmt.Errorf("control.address %q has no host", c.Address)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("control.address %q has an invalid port", c.Address)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("control.timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

func validateDisplay(d DisplayConfig) error {
	if !validDrivers[d.Driver] {
		return fmt.Errorf("display.driver %q is not one of terminal, fbdev", d.Driver)
	}
	switch d.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("display.rotation must be 0, 90, 180 or 270, got %d", d.Rotation)
	}
	if d.Driver == "terminal" && (d.Width <= 0 || d.Height <= 0) {
		return fmt.Errorf("display size must be positive, got %dx%d", d.Width, d.Height)
	}
	if d.Driver == "fbdev" && d.Device == "" {
		return fmt.Errorf("display.device is required for the fbdev driver")
	}
	if d.FontSize <= 0 {
		return fmt.Errorf("display.font_size must be positive, got %g", d.FontSize)
	}
	return nil
}
