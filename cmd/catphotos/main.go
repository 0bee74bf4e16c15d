package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "catphotos",
	Short:   "Family photo sharing service",
	Long: `Catphotos is a small photo sharing service for families. It serves
an HTML gallery, accepts uploads, and hands out short-lived signed URLs
for direct uploads and downloads.

Without a subcommand it runs the API Gateway event handler, which is
what the deployed function does. Use "serve" to run a plain HTTP server
for local development.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging("")
		return nil
	},
}

func init() {
	rootCmd.RunE = runLambda
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path (default: ./config.yaml)")
}

func main() {
	// Inside Lambda there is no CLI. Skip cobra so a stray argument from
	// the runtime can never be mistaken for a subcommand.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		setupLogging("")
		if err := startLambda(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
