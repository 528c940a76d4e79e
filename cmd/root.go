package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smithrashell/CodeMaster-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "codemaster",
	Short: "Adaptive mastery trainer for coding interview practice",
	Long: "CodeMaster schedules coding problems with spaced repetition, tracks\n" +
		"per-concept mastery, and raises the difficulty ceiling as you improve.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CODEMASTER_DB env var)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(diagnosticCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then CODEMASTER_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
