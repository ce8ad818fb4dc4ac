package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/relaystat/internal/config"
	"github.com/rileyhilliard/relaystat/internal/control"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/render"
	"github.com/rileyhilliard/relaystat/internal/torrc"
	"github.com/rileyhilliard/relaystat/internal/units"
)

// TorrcReadableCheck verifies the relay's torrc can be opened.
type TorrcReadableCheck struct {
	Path string
}

func (c *TorrcReadableCheck) Name() string     { return "torrc_readable" }
func (c *TorrcReadableCheck) Category() string { return "TORRC" }

func (c *TorrcReadableCheck) Run() CheckResult {
	f, err := os.Open(c.Path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't read %s: %v", c.Path, err),
			Suggestion: "Set torrc in the config, or add relaystat's user to the group that can read it (often debian-tor)",
		}
	}
	f.Close()

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("torrc: %s", c.Path),
	}
}

// TorrcNicknameCheck warns when no Nickname is configured.
type TorrcNicknameCheck struct {
	Path string
}

func (c *TorrcNicknameCheck) Name() string     { return "torrc_nickname" }
func (c *TorrcNicknameCheck) Category() string { return "TORRC" }

func (c *TorrcNicknameCheck) Run() CheckResult {
	nickname := torrc.ReadNickname(c.Path, logger.Noop())
	if nickname == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No Nickname in torrc, the display will show N/A",
			Suggestion: "Add a line like 'Nickname myrelay' to torrc",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Nickname: %s", nickname),
	}
}

// TorrcAccountingCheck warns when no usable AccountingMax is configured.
type TorrcAccountingCheck struct {
	Path string
}

func (c *TorrcAccountingCheck) Name() string     { return "torrc_accounting" }
func (c *TorrcAccountingCheck) Category() string { return "TORRC" }

func (c *TorrcAccountingCheck) Run() CheckResult {
	quota, ok := torrc.ReadAccountingQuota(c.Path, logger.Noop())
	if !ok {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No usable AccountingMax in torrc, the usage bar will be hidden",
			Suggestion: "Add a line like 'AccountingMax 500 GB' to torrc, with a unit of KB, MB, GB, TB, PB or EB",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Accounting quota: %s combined", units.BytesToHuman(quota)),
	}
}

// ControlCheck opens and authenticates a control session.
type ControlCheck struct {
	Address string
	Dial    control.DialFunc
	Timeout time.Duration
}

func (c *ControlCheck) Name() string     { return "control_session" }
func (c *ControlCheck) Category() string { return "CONTROL" }

func (c *ControlCheck) Run() CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ctl, err := c.Dial(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't open a session on %s: %v", c.Address, err),
			Suggestion: "Enable ControlPort 9051 and CookieAuthentication 1 in torrc, and make the cookie readable by relaystat",
		}
	}
	defer ctl.Close()

	version, err := ctl.GetVersion(ctx)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Authenticated on %s but GETINFO version failed: %v", c.Address, err),
			Suggestion: "Check tor's log for control port errors",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Authenticated on %s, tor %s", c.Address, version),
	}
}

// FontCheck verifies the configured font loads.
type FontCheck struct {
	Path string
	Size float64
}

func (c *FontCheck) Name() string     { return "display_font" }
func (c *FontCheck) Category() string { return "DISPLAY" }

func (c *FontCheck) Run() CheckResult {
	if c.Path == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "Using the built-in bitmap font",
		}
	}
	if _, err := render.LoadFace(c.Path, c.Size); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Font unusable, falling back to the built-in font: %v", err),
			Suggestion: "Install fonts-dejavu-core or point display.font at a .ttf/.otf file",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Font: %s at %gpt", c.Path, c.Size),
	}
}

// SplashCheck verifies the splash image decodes.
type SplashCheck struct {
	Path string
}

func (c *SplashCheck) Name() string     { return "display_splash" }
func (c *SplashCheck) Category() string { return "DISPLAY" }

func (c *SplashCheck) Run() CheckResult {
	if c.Path == "" {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "No splash image configured",
		}
	}
	if _, err := render.LoadSplash(c.Path, 1, 1); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Splash image will be skipped: %v", err),
			Suggestion: "Point splash.image at a PNG, JPEG or GIF file",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Splash image: %s", c.Path),
	}
}

// DisplayDeviceCheck verifies the framebuffer device exists for fbdev.
type DisplayDeviceCheck struct {
	Driver string
	Device string
}

func (c *DisplayDeviceCheck) Name() string     { return "display_device" }
func (c *DisplayDeviceCheck) Category() string { return "DISPLAY" }

func (c *DisplayDeviceCheck) Run() CheckResult {
	if c.Driver != render.DriverFBDev {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("Driver: %s", c.Driver),
		}
	}
	if _, err := os.Stat(c.Device); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Framebuffer %s unavailable: %v", c.Device, err),
			Suggestion: "Enable the panel's fbtft overlay, or set display.device",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Driver: fbdev on %s", c.Device),
	}
}

// AllChecks returns the standard checks for cfg, in display order. cfg may
// be nil when loading failed; only the config checks run then.
func AllChecks(configPath string, cfg *config.Config, loadErr error, dial control.DialFunc) []Check {
	checks := []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigValidCheck{Config: cfg, LoadErr: loadErr},
	}
	if cfg == nil {
		return checks
	}
	return append(checks,
		&TorrcReadableCheck{Path: cfg.Torrc},
		&TorrcNicknameCheck{Path: cfg.Torrc},
		&TorrcAccountingCheck{Path: cfg.Torrc},
		&ControlCheck{Address: cfg.Control.Address, Dial: dial, Timeout: cfg.Control.Timeout},
		&DisplayDeviceCheck{Driver: cfg.Display.Driver, Device: cfg.Display.Device},
		&FontCheck{Path: cfg.Display.Font, Size: cfg.Display.FontSize},
		&SplashCheck{Path: cfg.Splash.Image},
	)
}
