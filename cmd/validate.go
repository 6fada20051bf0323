package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/propstack/reconcilo/catalog"
	"github.com/propstack/reconcilo/loader"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the catalog file without touching the database",
	Long: `Load and validate the declared catalog. Validation is eager and
fail-fast: the first problem blocks loading entirely, so a catalog that
validates is a catalog the planner can trust.

Checks include:
- Entity declaration order (no forward foreign references)
- Column names, types and the single-primary-key rule
- Index kinds against column types (array indexes, json containment)
- Expression indexes (exactly one decoded path, declared columns only)
- Policy precedence ("all" vs operation-specific conflicts)

Examples:
  reconcilo validate
  reconcilo validate -f custom.yaml
`,
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(validateFile)
		if err != nil {
			reportLoadError(err)
			os.Exit(1)
		}

		entities, indexes, policies := declaredCounts(cat)
		fmt.Println("✅ Catalog is valid")
		fmt.Printf("   %d entities, %d indexes, %d policies\n", entities, indexes, policies)
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "reconcilo.yaml", "Catalog file to validate")
}

func reportLoadError(err error) {
	var depErr *catalog.DependencyOrderError
	var exprErr *catalog.InvalidIndexExpressionError
	var typeErr *catalog.TypeMismatchError
	var policyErr *catalog.PolicyConflictError

	switch {
	case errors.As(err, &depErr):
		fmt.Println("❌ Dependency order:", depErr)
		fmt.Println("💡 Declare referenced entities before the entities that reference them.")
	case errors.As(err, &exprErr):
		fmt.Println("❌ Invalid index expression:", exprErr)
		fmt.Println("💡 Expression indexes decode exactly one json path; containment needs a gin index on the column.")
	case errors.As(err, &typeErr):
		fmt.Println("❌ Type mismatch:", typeErr)
	case errors.As(err, &policyErr):
		fmt.Println("❌ Policy conflict:", policyErr)
		fmt.Println("💡 An \"all\" policy cannot coexist with operation-specific policies on the same entity.")
	default:
		fmt.Println("❌ Loading catalog:", err)
	}
}
