package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/propstack/reconcilo/catalog"
	"github.com/propstack/reconcilo/database"
	"github.com/propstack/reconcilo/introspect"
	"github.com/propstack/reconcilo/loader"
	"github.com/propstack/reconcilo/planner"
)

var (
	planFile     string
	planPolicies bool
	planVisual   bool
	planTimeout  time.Duration
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the actions needed to reconcile the database with the catalog",
	Long: `Introspect the live database and list the create-if-missing actions
that would bring it in line with the declared catalog.

The plan is computed fresh on every run and never persisted: applying a
prefix of it and re-planning yields exactly the remaining actions.

Examples:
  reconcilo plan                  # Plan tables and indexes
  reconcilo plan --policies       # Also plan row security and policies
  reconcilo plan --visual         # Grouped, colored rendering
  reconcilo plan -f custom.yaml   # Use a custom catalog file
`,
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(planFile)
		if err != nil {
			fmt.Println("❌ Loading catalog:", err)
			os.Exit(1)
		}

		live, err := takeSnapshot(planTimeout)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		plan := planner.Build(cat, live, planner.Options{EnforcePolicies: planPolicies})
		if plan.Empty() {
			fmt.Println("✅ Database matches the catalog. Nothing to do.")
			return
		}

		if planVisual {
			showVisualPlan(plan)
		} else {
			showTextPlan(plan)
		}
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "reconcilo.yaml", "Catalog file to load")
	planCmd.Flags().BoolVar(&planPolicies, "policies", false, "Include row security enablement and policy creation")
	planCmd.Flags().BoolVarP(&planVisual, "visual", "v", false, "Show the plan grouped by entity with colors")
	planCmd.Flags().DurationVarP(&planTimeout, "timeout", "t", 10*time.Second, "Timeout for database introspection")
}

// takeSnapshot introspects the live backend under a caller timeout. On
// timeout no snapshot is returned at all: planning against a guess
// would produce actions for objects that already exist.
func takeSnapshot(timeout time.Duration) (*introspect.LiveState, error) {
	pool, err := database.GetPool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return introspect.Snapshot(ctx, pool)
}

func showTextPlan(plan planner.Plan) {
	fmt.Printf("📋 Plan: %d action(s)\n", len(plan.Actions))
	fmt.Println(strings.Repeat("=", 40))

	for i, action := range plan.Actions {
		fmt.Printf("%d. ", i+1)
		switch action.Kind {
		case planner.CreateEntity:
			fmt.Printf("CREATE TABLE %s\n", action.Target)
		case planner.CreateIndex:
			fmt.Printf("CREATE INDEX %s ON %s (%s)\n", action.Target, action.EntityName, action.Index.Kind)
		case planner.EnableRowSecurity:
			fmt.Printf("ENABLE ROW SECURITY ON %s\n", action.Target)
		case planner.CreatePolicy:
			fmt.Printf("CREATE POLICY %s ON %s FOR %s\n", action.Target, action.EntityName, action.Policy.Operation)
		}
	}
}

func showVisualPlan(plan planner.Plan) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Println("🌳 Reconciliation Plan")
	fmt.Println(strings.Repeat("=", 50))

	byEntity := make(map[string][]planner.Action)
	var order []string
	for _, action := range plan.Actions {
		if _, seen := byEntity[action.EntityName]; !seen {
			order = append(order, action.EntityName)
		}
		byEntity[action.EntityName] = append(byEntity[action.EntityName], action)
	}

	for _, entity := range order {
		fmt.Printf("\n📋 %s:\n", entity)
		for _, action := range byEntity[entity] {
			switch action.Kind {
			case planner.CreateEntity:
				green.Printf("  ➕ CREATE TABLE %s\n", action.Target)
			case planner.CreateIndex:
				cyan.Printf("  🔍 CREATE INDEX %s (%s)\n", action.Target, action.Index.Kind)
			case planner.EnableRowSecurity:
				yellow.Printf("  🔒 ENABLE ROW SECURITY\n")
			case planner.CreatePolicy:
				yellow.Printf("  🛡️  CREATE POLICY %s FOR %s\n", action.Target, action.Policy.Operation)
			}
		}
	}
}

// declaredCounts summarizes a catalog for the status command.
func declaredCounts(cat *catalog.Catalog) (entities, indexes, policies int) {
	for _, e := range cat.Entities() {
		entities++
		indexes += len(cat.IndexesFor(e.Name))
		policies += len(cat.PoliciesFor(e.Name))
	}
	return
}
