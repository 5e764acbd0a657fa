package commands

import (
	"errors"
	"fmt"
	"os"

	"envirofetch/lib/envirofacts"
	"envirofetch/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var fetchYear *int
var fetchRows *int
var fetchOutput *string

func init() {
	fetchYear = fetchCmd.Flags().Int("year", 0, "Reporting year to filter by, 0 fetches all years.")
	fetchRows = fetchCmd.Flags().Int("rows", 0, "Row total to fetch, 0 asks the service for the count.")
	fetchOutput = fetchCmd.Flags().StringP("output", "o", "", "File to write the csv to, defaults to stdout.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <table> [--year <year>] [--rows <n>] [-o <file>]",
	Short: "Downloads a full table as csv.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := newClient()

		result, err := client.FetchTable(cmd.Context(), envirofacts.FetchOptions{
			Table: args[0],
			Year:  *fetchYear,
			Rows:  *fetchRows,
		})
		if errors.Is(err, envirofacts.ErrNoData) {
			fmt.Fprintln(os.Stderr, "no matching data")
			os.Exit(2)
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch table", err)
		}

		out := os.Stdout
		if *fetchOutput != "" {
			out, err = os.Create(*fetchOutput)
			if err != nil {
				serviceutil.Fatal("failed to create output file", err)
			}
			defer out.Close()
		}
		err = result.WriteCSV(out)
		if err != nil {
			serviceutil.Fatal("failed to write csv", err)
		}
	},
}
