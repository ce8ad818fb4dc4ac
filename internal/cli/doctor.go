package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/relaystat/internal/config"
	"github.com/rileyhilliard/relaystat/internal/doctor"
	"github.com/rileyhilliard/relaystat/internal/errors"
	"github.com/rileyhilliard/relaystat/internal/ui"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, torrc, control port and display problems",
	Long: `Run diagnostic checks and print what's wrong and how to fix it.

Checks cover the config file, the relay's torrc (readable, Nickname,
AccountingMax), the control port session, and the display driver,
font and splash image.

Examples:
  relaystat doctor
  relaystat doctor --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []doctor.Section `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(cmd *cobra.Command) error {
	// Load errors are reported by the config checks, not returned.
	cfg, loadErr := config.Load(Config(), cmd.Flags())

	opts := config.DefaultConfig().ControlOptions()
	if cfg != nil {
		opts = cfg.ControlOptions()
	}

	report := doctor.Run(doctor.AllChecks(Config(), cfg, loadErr, newDialer(opts)))

	out := cmd.OutOrStdout()
	var err error
	if doctorJSON {
		err = WriteJSONSuccess(out, buildDoctorOutput(report))
	} else {
		err = writeDoctorText(out, report)
	}
	if err != nil {
		return err
	}

	if report.HasFailures() {
		return errors.New(errors.ErrCheck,
			report.Summary(),
			"Fix the failed checks above and run 'relaystat doctor' again.")
	}
	return nil
}

func buildDoctorOutput(report *doctor.Report) DoctorOutput {
	counts := report.Counts()
	return DoctorOutput{
		Categories: report.Sections(),
		Summary: SummaryOutput{
			Pass:     counts[doctor.StatusPass],
			Warn:     counts[doctor.StatusWarn],
			Fail:     counts[doctor.StatusFail],
			AllClear: !report.HasIssues(),
		},
	}
}

func writeDoctorText(w io.Writer, report *doctor.Report) error {
	header := ui.HeaderStyle()

	var b strings.Builder
	b.WriteString("\n" + header.Render("relaystat diagnostic report") + "\n\n")

	for _, section := range report.Sections() {
		b.WriteString(header.Render(section.Category) + "\n")
		for _, result := range section.Results {
			writeCheckResult(&b, result)
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", 60) + "\n\n")
	if report.HasIssues() {
		fmt.Fprintf(&b, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), report.Summary())
	} else {
		fmt.Fprintf(&b, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), report.Summary())
	}

	_, err := io.WriteString(w, b.String())
	return err
}
func writeCheckResult(b *strings.Builder, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolSuccess, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarn, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(b, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(b, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}
