package commands

import (
	"exchangestats/internal/config"
	"exchangestats/internal/service"
	"exchangestats/lib/telemetry"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	for _, cmd := range []*cobra.Command{crawlCmd, scheduleCmd} {
		cmd.Flags().String("format", "", "The output format: jsonl, prefixed or table.")
		cmd.Flags().String("out", "", "Write records to this file instead of stdout.")
		cmd.Flags().String("db", "", "Store snapshots in this sqlite database.")
		cmd.Flags().String("dump-http", "", "Write every http message to this directory when --debug is set.")
		cmd.Flags().Bool("markets", false, "Render the market rows of every exchange in the table format.")
		cmd.Flags().String("on-fetch-failure", "", "What to do when a page can't be fetched: drop, emit_partial or skip_exchange.")
	}
	rootCmd.AddCommand(crawlCmd)
}

// loadConfig reads the config file and applies the flags that were set on `cmd`.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Lookup("format") != nil {
		if v, _ := flags.GetString("format"); v != "" {
			cfg.Output.Format = v
		}
		if v, _ := flags.GetString("out"); v != "" {
			cfg.Output.File = v
		}
		if v, _ := flags.GetString("dump-http"); v != "" {
			cfg.DumpHttp = v
		}
		if v, _ := flags.GetBool("markets"); v {
			cfg.Output.Markets = true
		}
		if v, _ := flags.GetString("on-fetch-failure"); v != "" {
			cfg.OnFetchFailure = v
		}
	}
	if flags.Lookup("db") != nil {
		if v, _ := flags.GetString("db"); v != "" {
			cfg.Database.File = v
			cfg.Database.Url = ""
		}
	}

	err = cfg.Validate()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--format jsonl|prefixed|table] [--out <file>] [--db <path/to/stats.db>]",
	Short: "Crawls every configured exchange once and emits a record per exchange.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if tel.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context(), time.Second*15)
		}

		summary, err := service.New(cfg).Crawl(cmd.Context(), os.Stdout)
		slog.Info(
			"crawl finished",
			"run", summary.RunId,
			"emitted", summary.Emitted,
			"failures", len(summary.Failures),
			"seconds", summary.Duration.Seconds(),
		)
		return err
	},
}
