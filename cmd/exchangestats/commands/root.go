package commands

import (
	"context"
	"exchangestats/internal/config"
	"exchangestats/lib/telemetry"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
	tel        telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:   "exchangestats",
	Short: "exchangestats crawls exchange statistics from bitdegree.org.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultPath, "The config file to read.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging.")
}

// ExecuteContext runs the cli and returns the exit code.
func ExecuteContext(ctx context.Context, t telemetry.Telemetry) int {
	tel = t
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
