package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "helpdesk",
		Short:        "Helpdesk - role-scoped support ticket API",
		Long:         `Helpdesk serves the support ticket API and ships the database migration and admin provisioning tools.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newAdminCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
