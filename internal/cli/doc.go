// Package cli implements the relaystat command-line interface.
//
// Each cobra command loads the effective config (file, RELAYSTAT_*
// environment, then flags) and hands off to the packages that do the
// work:
//
//	relaystat run        - poll the relay and refresh the display (runner)
//	relaystat status     - collect once and print (status, layout)
//	relaystat doctor     - diagnose setup problems (doctor)
//	relaystat version    - print build information
//	relaystat completion - generate shell completions
//
// # Flag Handling
//
// Global flags (--config, --torrc, --control) are defined on the root
// command. --torrc and --control are bound into the config through viper,
// so they override both the config file and the environment.
//
// # Machine Output
//
// status and doctor accept --json, which wraps output in JSONEnvelope.
// Errors from those commands are mapped to stable codes by ErrorToJSON.
package cli
