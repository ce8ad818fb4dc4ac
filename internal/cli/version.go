package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set from main, which gets them through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	versionShort bool
	versionJSON  bool
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of relaystat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := currentBuild()

		switch {
		case versionJSON:
			return WriteJSONSuccess(out, info)
		case versionShort:
			fmt.Fprintln(out, info.Version)
		default:
			fmt.Fprintf(out, "relaystat %s\ncommit: %s\nbuilt: %s\ngo: %s\nos/arch: %s/%s\n",
				formatVersion(info.Version), info.Commit, info.Built, info.Go, info.OS, info.Arch)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output in JSON format")
}

func currentBuild() BuildInfo {
	return BuildInfo{
		Version: version,
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// formatVersion adds a 'v' prefix to release versions.
func formatVersion(v string) string {
	if v == "" || v == "dev" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

// SetVersionInfo sets the build information. Called from main.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
