package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/relaystat/internal/config"
	"github.com/rileyhilliard/relaystat/internal/control"
	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/layout"
	"github.com/rileyhilliard/relaystat/internal/logger"
	"github.com/rileyhilliard/relaystat/internal/status"
	"github.com/rileyhilliard/relaystat/internal/ui"
)

// usageBarWidth is the character width of the text usage bar.
const usageBarWidth = 30

var (
	statusJSON bool
	statusYAML bool
)

// newDialer builds the control session factory. Tests swap it for a fake.
var newDialer = control.Dialer

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Collect the relay's status once and print it",
	Long: `Open one control port session, collect the same fields the display
shows and print them, with exact byte counts.

Fields that could not be collected print as N/A and are listed under
problems. The command fails only when no session could be opened.

Examples:
  relaystat status
  relaystat status --json
  relaystat status --yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusJSON && statusYAML {
			return errors.New(errors.ErrConfig,
				"--json and --yaml cannot be used together",
				"Pick one output format.")
		}
		return statusCommand(cmd)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
	statusCmd.Flags().BoolVar(&statusYAML, "yaml", false, "output in YAML format")
	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the machine-readable form of a snapshot. Unavailable
// values are null.
type StatusOutput struct {
	Timestamp     time.Time        `json:"timestamp" yaml:"timestamp"`
	Version       *string          `json:"version" yaml:"version"`
	Nickname      *string          `json:"nickname" yaml:"nickname"`
	Fingerprint   *string          `json:"fingerprint" yaml:"fingerprint"`
	UptimeSeconds *int64           `json:"uptime_seconds" yaml:"uptime_seconds"`
	Flags         []string         `json:"flags" yaml:"flags"`
	Accounting    AccountingOutput `json:"accounting" yaml:"accounting"`
	Problems      []ProblemOutput  `json:"problems" yaml:"problems"`
}

// AccountingOutput holds byte counts for the current accounting period.
type AccountingOutput struct {
	Read    *int64   `json:"read_bytes" yaml:"read_bytes"`
	Written *int64   `json:"written_bytes" yaml:"written_bytes"`
	Quota   *int64   `json:"quota_bytes" yaml:"quota_bytes"`
	Percent *float64 `json:"percent" yaml:"percent"`
}

// ProblemOutput describes a field that could not be collected.
type ProblemOutput struct {
	Field string `json:"field" yaml:"field"`
	Error string `json:"error" yaml:"error"`
}

func statusCommand(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	machine := statusJSON || statusYAML

	// Keep machine output parseable.
	if machine {
		logger.SetOutput(cmd.ErrOrStderr())
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return writeStatusError(out, err)
	}

	snap, err := collectStatus(cmd.Context(), cfg)
	if err != nil {
		return writeStatusError(out, err)
	}

	switch {
	case statusJSON:
		return WriteJSONSuccess(out, NewStatusOutput(snap))
	case statusYAML:
		return writeStatusYAML(out, NewStatusOutput(snap))
	default:
		return writeStatusText(out, snap)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config) (*status.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	collector := status.NewCollector(newDialer(cfg.ControlOptions()), cfg.Torrc, logger.NewEnvLogger("[status]"))
	collector.SetTimeout(cfg.CollectTimeout)
	return collector.Collect(ctx)
}

// writeStatusError reports err in the envelope under --json and returns it
// so the exit code is still non-zero.
func writeStatusError(w io.Writer, err error) error {
	if statusJSON {
		if werr := WriteJSONFromError(w, err); werr != nil {
			return werr
		}
	}
	return err
}

// NewStatusOutput converts snap for JSON or YAML output.
func NewStatusOutput(snap *status.Snapshot) StatusOutput {
	out := StatusOutput{
		Timestamp:   snap.Timestamp,
		Version:     fieldPtr(snap.Version),
		Fingerprint: fieldPtr(snap.Fingerprint),
		Problems:    make([]ProblemOutput, 0, len(snap.Problems)),
	}
	if snap.Nickname != "" {
		nickname := snap.Nickname
		out.Nickname = &nickname
	}
	if up, ok := snap.Uptime.Get(); ok {
		secs := int64(up / time.Second)
		out.UptimeSeconds = &secs
	}
	if flags, ok := snap.Flags.Get(); ok {
		out.Flags = append([]string{}, flags...)
	}

	out.Accounting = AccountingOutput{
		Read:    fieldPtr(snap.BytesRead),
		Written: fieldPtr(snap.BytesWritten),
		Quota:   fieldPtr(snap.Quota),
	}
	if total, ok := snap.Traffic(); ok && snap.QuotaBytes() > 0 {
		pct := layout.Percentage(total, snap.QuotaBytes())
		out.Accounting.Percent = &pct
	}

	for _, p := range snap.Problems {
		out.Problems = append(out.Problems, ProblemOutput{Field: p.Field, Error: p.Err.Error()})
	}
	return out
}

func fieldPtr[T any](f status.Field[T]) *T {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

func writeStatusYAML(w io.Writer, out StatusOutput) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// writeStatusText prints the display's lines followed by exact counts.
func writeStatusText(w io.Writer, snap *status.Snapshot) error {
	label := ui.LabelStyle()
	muted := ui.MutedStyle()

	var b strings.Builder
	for _, line := range layout.Lines(snap) {
		name, value, found := strings.Cut(line, ": ")
		if !found {
			b.WriteString(line + "\n")
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", label.Render(fmt.Sprintf("%-12s", name+":")), value)
	}

	if up, ok := snap.Uptime.Get(); ok {
		fmt.Fprintf(&b, "%s %s\n", label.Render(fmt.Sprintf("%-12s", "Up since:")),
			humanize.RelTime(snap.Timestamp.Add(-up), snap.Timestamp, "ago", "from now"))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "  read     %s\n", countOrUnavailable(snap.BytesRead))
	fmt.Fprintf(&b, "  written  %s\n", countOrUnavailable(snap.BytesWritten))
	fmt.Fprintf(&b, "  quota    %s\n", countOrUnavailable(snap.Quota))

	if total, ok := snap.Traffic(); ok && snap.QuotaBytes() > 0 {
		pct := layout.Percentage(total, snap.QuotaBytes())
		fmt.Fprintf(&b, "  %s\n", ui.RenderUsageBar(pct, usageBarWidth, layout.FormatPercent(pct)))
	}

	if len(snap.Problems) > 0 {
		b.WriteString("\n")
		for _, p := range snap.Problems {
			fmt.Fprintf(&b, "%s %s\n", ui.WarningStyle().Render(ui.SymbolMissing),
				muted.Render(fmt.Sprintf("%s unavailable: %v", p.Field, p.Err)))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func countOrUnavailable(f status.Field[int64]) string {
	v, ok := f.Get()
	if !ok {
		return status.Unavailable
	}
	return humanize.Comma(v) + " bytes"
}
