package config

import (
	"time"

	"github.com/rileyhilliard/relaystat/internal/control"
)

// Config represents the complete relaystat.yaml configuration file.
type Config struct {
	// Torrc is the relay configuration read for Nickname and AccountingMax.
	Torrc string `yaml:"torrc" mapstructure:"torrc"`

	// Interval between completed display refreshes.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// CollectTimeout bounds one status collection, control session included.
	CollectTimeout time.Duration `yaml:"collect_timeout" mapstructure:"collect_timeout"`

	Control ControlConfig `yaml:"control" mapstructure:"control"`
	Display DisplayConfig `yaml:"display" mapstructure:"display"`
	Splash  SplashConfig  `yaml:"splash" mapstructure:"splash"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" mapstructure:"-"`
}

// ControlConfig says how to reach and authenticate to the ControlPort.
type ControlConfig struct {
	Address string `yaml:"address" mapstructure:"address"`

	// Password for HashedControlPassword. Leave empty for cookie auth.
	Password string `yaml:"password" mapstructure:"password"`

	// CookieFile overrides the path tor advertises in PROTOCOLINFO.
	CookieFile string `yaml:"cookie_file" mapstructure:"cookie_file"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DisplayConfig picks and sizes the display.
type DisplayConfig struct {
	// Driver is "terminal" or "fbdev".
	Driver string `yaml:"driver" mapstructure:"driver"`

	// Device is the framebuffer device for the fbdev driver.
	Device string `yaml:"device" mapstructure:"device"`

	// Width and Height are the terminal preview's panel size. fbdev reads
	// its own geometry.
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`

	// Rotation turns each frame counter-clockwise: 0, 90, 180 or 270.
	Rotation int `yaml:"rotation" mapstructure:"rotation"`

	// Font is a TrueType/OpenType file. Empty uses a built-in bitmap font.
	Font     string  `yaml:"font" mapstructure:"font"`
	FontSize float64 `yaml:"font_size" mapstructure:"font_size"`
}

// SplashConfig is the image shown once at startup.
type SplashConfig struct {
	// Image path; empty disables the splash.
	Image    string        `yaml:"image" mapstructure:"image"`
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
}

// DefaultConfig returns a config with the reference display defaults.
func DefaultConfig() *Config {
	return &Config{
		Torrc:          "/etc/tor/torrc",
		Interval:       60 * time.Second,
		CollectTimeout: 30 * time.Second,
		Control: ControlConfig{
			Address: control.DefaultAddress,
			Timeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			Driver:   "terminal",
			Device:   "/dev/fb1",
			Width:    250,
			Height:   122,
			Rotation: 0,
			Font:     "/usr/share/fonts/truetype/dejavu/DejaVuSansMono-Bold.ttf",
			FontSize: 10,
		},
		Splash: SplashConfig{
			Duration: 3 * time.Second,
		},
	}
}

// ControlOptions converts the control section for control.Dialer.
func (c *Config) ControlOptions() control.Options {
	return control.Options{
		Address:    c.Control.Address,
		Password:   c.Control.Password,
		CookieFile: c.Control.CookieFile,
		Timeout:    c.Control.Timeout,
	}
}
