package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/relaystat/internal/errors"
)

const (
	// ConfigFileName is looked for in the working directory.
	ConfigFileName = "relaystat.yaml"
	// EnvPrefix prefixes environment overrides, e.g. RELAYSTAT_CONTROL_ADDRESS.
	EnvPrefix = "RELAYSTAT"
)

// SystemConfigPath is the fallback config location.
var SystemConfigPath = "/etc/relaystat/config.yaml"

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"torrc":   "torrc",
	"control": "control.address",
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. relaystat.yaml in current directory
// 3. /etc/relaystat/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if _, err := os.Stat(SystemConfigPath); err == nil {
		return SystemConfigPath, nil
	}
	return "", nil
}

// Load builds the config from defaults, the config file (if any),
// RELAYSTAT_* environment variables and flags, in increasing precedence.
// flags may be nil.
func Load(explicit string, flags *pflag.FlagSet) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML: "+path)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WrapWithCode(err, errors.ErrConfig,
						"Failed to bind --"+name, "")
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax and value types in "+describe(path))
	}
	cfg.Source = path
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to
// Unmarshal even when no config file sets them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("torrc", d.Torrc)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("collect_timeout", d.CollectTimeout)
	v.SetDefault("control.address", d.Control.Address)
	v.SetDefault("control.password", d.Control.Password)
	v.SetDefault("control.cookie_file", d.Control.CookieFile)
	v.SetDefault("control.timeout", d.Control.Timeout)
	v.SetDefault("display.driver", d.Display.Driver)
	v.SetDefault("display.device", d.Display.Device)
	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.rotation", d.Display.Rotation)
	v.SetDefault("display.font", d.Display.Font)
	v.SetDefault("display.font_size", d.Display.FontSize)
	v.SetDefault("splash.image", d.Splash.Image)
	v.SetDefault("splash.duration", d.Splash.Duration)
}

func describe(path string) string {
	if path == "" {
		return "the environment"
	}
	return path
}
