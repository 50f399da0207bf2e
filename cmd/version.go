package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	buildTime  string
)

// SetVersion records build metadata and enables the root --version flag.
func SetVersion(v, bt string) {
	if v != "" {
		appVersion = v
	}
	buildTime = bt
	rootCmd.Version = appVersion
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Claims Console %s\n", appVersion)
		if buildTime != "" {
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		}
		fmt.Fprintf(out, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
