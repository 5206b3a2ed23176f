// Package main provides the gamification-service CLI.
//
// Usage:
//
//	gamification serve
//	gamification deadletter list [--limit 100]
//	gamification deadletter replay <entry-id>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gamification",
		Short:   "Gamification event processing service",
		Long:    `gamification consumes fitness activity events, awards points, badges and streaks, and reliably republishes derived events through a transactional outbox.`,
		Version: version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDeadLetterCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the service",
		Run: func(cmd *cobra.Command, args []string) {
			newApp().Run()
		},
	}
}
