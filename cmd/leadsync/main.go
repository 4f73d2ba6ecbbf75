package main

import (
	"os"

	"github.com/spf13/cobra"

	"leadsync/internal/interfaces/cli/can"
	"leadsync/internal/interfaces/cli/filter"
	"leadsync/internal/interfaces/cli/prefs"
	"leadsync/internal/interfaces/cli/run"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "leadsync",
		Short:        "Leadsync - CRM ticket sync client",
		Long:         `Leadsync keeps CRM ticket lists, chats and unread counts in sync with the backend and exposes them over a local control API.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		run.NewCommand(),
		filter.NewCommand(),
		can.NewCommand(),
		prefs.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
