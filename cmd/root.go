package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reconcilo",
	Short: "Declarative schema reconciliation for a hosted Postgres backend",
	Long: `reconcilo compares a declared catalog of tables, indexes and
row-security policies against a live database and plans the
create-if-missing actions needed to close the gap.

Examples:

  reconcilo init
  reconcilo plan
  reconcilo apply --policies
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
}
