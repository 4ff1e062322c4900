package commands

import (
	"exchangestats/internal/service"
	"exchangestats/lib/telemetry"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <cron spec>",
	Short: "Crawls every configured exchange each time the cron spec is due, until interrupted.",
	Example: `  exchangestats schedule "0 */6 * * *" --db stats.db
  exchangestats schedule @hourly --format prefixed --out stats.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if tel.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context(), time.Second*15)
		}

		slog.Info("scheduling crawls", "spec", args[0])
		return service.New(cfg).Schedule(cmd.Context(), args[0], os.Stdout)
	},
}
