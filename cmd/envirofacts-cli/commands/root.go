package commands

import (
	"context"
	"fmt"
	"os"

	"envirofetch/lib/envirofacts"
	"envirofetch/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose *bool
var baseUrl *string

var rootCmd = &cobra.Command{
	Use:   "envirofacts-cli",
	Short: "envirofacts-cli downloads GHGRP tables from the EPA Envirofacts service.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
	baseUrl = rootCmd.PersistentFlags().String(
		"base-url",
		envirofacts.DefaultBaseUrl,
		"Root url of the Envirofacts data service.",
	)
}

func newClient() *envirofacts.Client {
	return envirofacts.NewClient(envirofacts.ClientOptions{BaseUrl: *baseUrl})
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
