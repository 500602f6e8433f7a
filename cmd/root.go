package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Contacts management service",
	Long:  `A contacts management service with per-user address books, account verification and birthday reminders over HTTP, plus gRPC health checks.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
