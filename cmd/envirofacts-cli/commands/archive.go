package commands

import (
	"os"

	"envirofetch/lib/util/configutil"
	"envirofetch/lib/util/serviceutil"
	"envirofetch/services/archiver"

	"github.com/spf13/cobra"
)

var archiveConfig *string

func init() {
	archiveConfig = archiveCmd.Flags().String("config", "archiver.json5", "The archiver configuration file.")
	rootCmd.AddCommand(archiveCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive [--config <path/to/archiver.json5>]",
	Short: "Archives every configured (table, year) pair to csv files.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[archiver.Config](*archiveConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		items, err := archiver.Run(cmd.Context(), newClient(), cfg)
		if err != nil {
			serviceutil.Fatal("archive run aborted", err)
		}

		archiver.RenderReport(os.Stdout, items)
		if archiver.FailedCount(items) > 0 {
			os.Exit(1)
		}
	},
}
