// Package cli is the taskmate command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Exposed for tests.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskmate",
		Short: "TaskMate - task scheduling dashboard API",
		Long: `TaskMate serves the dashboard API: employee directory, recurring task
scheduling with cron compilation, and AI-generated dashboard insights.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(scheduleCmd())
	root.AddCommand(versionCmd(version))
	return root
}

// Execute runs the root command with ctx (canceled on SIGINT/SIGTERM).
func Execute(ctx context.Context, version string) error {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "taskmate", version)
		},
	}
}
