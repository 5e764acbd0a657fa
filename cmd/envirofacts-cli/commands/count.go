package commands

import (
	"fmt"

	"envirofetch/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var countYear *int

func init() {
	countYear = countCmd.Flags().Int("year", 0, "Reporting year to filter by, 0 counts all years.")
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count <table> [--year <year>]",
	Short: "Prints the total row count of a table.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()
		ctx := cmd.Context()

		qualifier, err := client.YearQualifier(ctx, args[0], *countYear)
		if err != nil {
			serviceutil.Fatal("failed to resolve year qualifier", err)
		}
		count, err := client.RowCount(ctx, args[0], qualifier)
		if err != nil {
			serviceutil.Fatal("failed to count rows", err)
		}

		fmt.Println(count)
	},
}
