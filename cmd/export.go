package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/propstack/reconcilo/generator"
	"github.com/propstack/reconcilo/loader"
	"github.com/propstack/reconcilo/planner"
)

var (
	exportFile     string
	exportPolicies bool
	exportOut      bool
	exportTimeout  time.Duration
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the plan as SQL statements",
	Long: `Render the reconciliation plan as backend-native statements, one per
action, for manual or scripted application.

By default statements are printed to stdout; --write saves them into a
timestamped file under plans/.

Examples:
  reconcilo export                  # Print the SQL
  reconcilo export --write          # Save plans/<timestamp>_plan.sql
  reconcilo export --policies       # Include row security and policies
`,
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(exportFile)
		if err != nil {
			fmt.Println("❌ Loading catalog:", err)
			os.Exit(1)
		}

		live, err := takeSnapshot(exportTimeout)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		plan := planner.Build(cat, live, planner.Options{EnforcePolicies: exportPolicies})
		if plan.Empty() {
			fmt.Println("✅ Database matches the catalog. Nothing to export.")
			return
		}

		stmts, err := generator.GenerateSQL(plan)
		if err != nil {
			fmt.Println("❌ Generating SQL:", err)
			os.Exit(1)
		}

		if exportOut {
			filename, err := generator.WritePlanFile(stmts)
			if err != nil {
				fmt.Println("❌ Writing plan file:", err)
				os.Exit(1)
			}
			fmt.Println("✅ Plan exported:", filename)
			return
		}

		for _, stmt := range stmts {
			fmt.Println(stmt)
		}
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "reconcilo.yaml", "Catalog file to load")
	exportCmd.Flags().BoolVar(&exportPolicies, "policies", false, "Include row security enablement and policy creation")
	exportCmd.Flags().BoolVarP(&exportOut, "write", "w", false, "Write the statements to a plan file instead of stdout")
	exportCmd.Flags().DurationVarP(&exportTimeout, "timeout", "t", 10*time.Second, "Timeout for database introspection")
}
