package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/propstack/reconcilo/database"
	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database connectivity",
	Long: `Check that the backend is accessible and responsive.

Examples:
  reconcilo check                   # Check default database connection
  reconcilo check --timeout 10s     # Set custom timeout
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkDatabase(); err != nil {
			fmt.Printf("❌ Database check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Database is healthy and accessible")
	},
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "Timeout for the connectivity check")
}

func checkDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	pool, err := database.GetPool()
	if err != nil {
		return fmt.Errorf("failed to get database pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	var version string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query server version: %v", err)
	}
	fmt.Println("🗄️ ", version)

	return nil
}
