package commands

import (
	"exchangestats/internal/service"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	showCmd.Flags().String("db", "", "The sqlite database snapshots were stored in.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [exchange] [--db <path/to/stats.db>]",
	Short: "Shows the latest stored snapshot of every exchange, or the markets of one exchange.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		exchange := ""
		if len(args) > 0 {
			exchange = args[0]
		}
		return service.New(cfg).Show(cmd.Context(), os.Stdout, exchange)
	},
}
