package cli

import (
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/relaystat/internal/config"
)

// Global flags
var (
	cfgFile     string
	torrcFlag   string
	controlFlag string
)

var rootCmd = &cobra.Command{
	Use:   "relaystat",
	Short: "Show a Tor relay's status on a small display",
	Long: `relaystat polls a local Tor relay over its control port and draws
the relay's version, nickname, fingerprint, uptime, flags and bandwidth
accounting on a small monochrome display.

Configuration is read from --config, ./relaystat.yaml or
/etc/relaystat/config.yaml, and RELAYSTAT_* environment variables
override file values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./relaystat.yaml or "+config.SystemConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&torrcFlag, "torrc", "", "path to the relay's torrc")
	rootCmd.PersistentFlags().StringVar(&controlFlag, "control", "", "control port address (host:port)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// loadConfig loads and validates the effective config for cmd, with
// --torrc and --control applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(Config(), cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
