package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "est8",
		Short:         "est8 tile-placement rules engine and table server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replayCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
