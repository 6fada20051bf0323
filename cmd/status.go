package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/propstack/reconcilo/introspect"
	"github.com/propstack/reconcilo/loader"
)

var (
	statusFile    string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show declared vs live objects",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loader.LoadCatalog(statusFile)
		if err != nil {
			fmt.Println("❌ Loading catalog:", err)
			os.Exit(1)
		}

		live, err := takeSnapshot(statusTimeout)
		if err != nil {
			fmt.Println("❌ Introspecting database:", err)
			os.Exit(1)
		}

		entities, indexes, policies := declaredCounts(cat)
		fmt.Printf("📦 Declared: %d entities, %d indexes, %d policies\n", entities, indexes, policies)
		fmt.Printf("🗄️  Live: %d tables, %d indexes, %d policies\n",
			len(live.Entities), len(live.Indexes), len(live.Policies))

		var missingEntities, missingIndexes, missingPolicies []string
		for _, e := range cat.Entities() {
			if !live.Entities[e.Name] {
				missingEntities = append(missingEntities, e.Name)
			}
			for _, idx := range cat.IndexesFor(e.Name) {
				if !live.Indexes[idx.Name] {
					missingIndexes = append(missingIndexes, idx.Name)
				}
			}
			for _, p := range cat.PoliciesFor(e.Name) {
				key := introspect.PolicyKey{Entity: p.Entity, Operation: p.Operation}
				if !live.Policies[key] {
					missingPolicies = append(missingPolicies, p.PolicyName())
				}
			}
		}

		if len(missingEntities) == 0 && len(missingIndexes) == 0 && len(missingPolicies) == 0 {
			fmt.Println("✅ Everything declared exists in the database.")
			return
		}

		if len(missingEntities) > 0 {
			fmt.Println("\n🕒 Missing tables:")
			for _, name := range missingEntities {
				fmt.Println("   -", name)
			}
		}
		if len(missingIndexes) > 0 {
			fmt.Println("\n🕒 Missing indexes:")
			for _, name := range missingIndexes {
				fmt.Println("   -", name)
			}
		}
		if len(missingPolicies) > 0 {
			fmt.Println("\n🕒 Missing policies:")
			for _, name := range missingPolicies {
				fmt.Println("   -", name)
			}
		}
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusFile, "file", "f", "reconcilo.yaml", "Catalog file to load")
	statusCmd.Flags().DurationVarP(&statusTimeout, "timeout", "t", 10*time.Second, "Timeout for database introspection")
}
