package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/propstack/reconcilo/database"
	"github.com/propstack/reconcilo/executor"
	"github.com/propstack/reconcilo/loader"
	"github.com/propstack/reconcilo/planner"
)

var (
	applyFile     string
	applyPolicies bool
	applyTimeout  time.Duration
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Plan and apply the missing objects",
	Long: `Introspect the live database, plan the missing objects and apply the
plan action by action.

Every action is create-if-missing, so re-running apply is safe. If an
action fails mid-plan, the applied prefix stays in place; fix the cause
and run apply again — the new plan contains exactly the remaining
actions.

Examples:
  reconcilo apply                  # Create missing tables and indexes
  reconcilo apply --policies       # Also enable row security and policies
`,
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(applyFile)
		if err != nil {
			fmt.Println("❌ Loading catalog:", err)
			os.Exit(1)
		}

		live, err := takeSnapshot(applyTimeout)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		plan := planner.Build(cat, live, planner.Options{EnforcePolicies: applyPolicies})
		if plan.Empty() {
			fmt.Println("✅ Database matches the catalog. Nothing to apply.")
			return
		}

		pool, err := database.GetPool()
		if err != nil {
			fmt.Println("❌ Connecting to database:", err)
			os.Exit(1)
		}

		fmt.Printf("Applying %d action(s)...\n", len(plan.Actions))
		applied, err := executor.Apply(context.Background(), pool, plan)
		if err != nil {
			var backendErr *executor.BackendError
			if errors.As(err, &backendErr) {
				fmt.Printf("❌ Backend error after %d applied action(s): %v\n", applied, backendErr)
				fmt.Println("💡 Fix the cause and run 'reconcilo apply' again to continue.")
			} else {
				fmt.Println("❌ Apply failed:", err)
			}
			os.Exit(1)
		}

		fmt.Printf("✅ Applied %d action(s).\n", applied)
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "reconcilo.yaml", "Catalog file to load")
	applyCmd.Flags().BoolVar(&applyPolicies, "policies", false, "Include row security enablement and policy creation")
	applyCmd.Flags().DurationVarP(&applyTimeout, "timeout", "t", 10*time.Second, "Timeout for database introspection")
}
