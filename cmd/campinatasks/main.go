package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "campinatasks",
		Short:        "Area task tracker with deadline alerts",
		Long:         "campinatasks - track tasks per area, flag urgent deadlines and browse them by calendar.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		hashPasswordCmd(),
		urgentCmd(),
		calendarCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
