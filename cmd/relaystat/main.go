package main

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/relaystat/internal/cli"
	"github.com/rileyhilliard/relaystat/internal/logger"
)

// Version info set via ldflags at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger.SetOutput(os.Stdout)
	cli.SetVersionInfo(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
