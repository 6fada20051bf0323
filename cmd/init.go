package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example reconcilo.yaml catalog",
	Long: `Create an example catalog file describing the real-estate data store:
entities, their indexes and per-user access policies.

Edit the file to match your schema, then run 'reconcilo plan' to see
what the live database is missing.`,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat("reconcilo.yaml"); err == nil {
			fmt.Println("❌ reconcilo.yaml already exists!")
			return
		}

		if err := os.WriteFile("reconcilo.yaml", []byte(exampleCatalog), 0644); err != nil {
			fmt.Println("❌ Error creating reconcilo.yaml:", err)
			return
		}
		fmt.Println("✅ Created reconcilo.yaml example catalog.")
		fmt.Println("📝 Edit reconcilo.yaml to declare your entities, indexes and policies")
		fmt.Println("🚀 Run 'reconcilo plan' to compare it against the live database")
	},
}

const exampleCatalog = `# Declarative catalog for the real-estate data store.
#
# Entities are created in declaration order, so an entity may only
# reference entities declared at or above itself.
entities:
  - name: users
    columns:
      - name: id
        type: integer
        primary: true
      - name: email
        type: text
        unique: true
        not_null: true
      - name: full_name
        type: text
      - name: role
        type: text
        default: "'subscriber'"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

  - name: api_usage
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: query
        type: text
        not_null: true
      - name: query_type
        type: text
        default: "'property_search'"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: metadata
        type: json
        default: "'{}'"
      - name: response_time_ms
        type: integer
      - name: success
        type: boolean
        default: "TRUE"
      - name: error_message
        type: text

  - name: properties
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: property_hash
        type: text
        unique: true
      - name: data
        type: json
        not_null: true
      - name: search_params
        type: json
        default: "'{}'"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()
      - name: is_favorite
        type: boolean
        default: "FALSE"
      - name: notes
        type: text
      - name: tags
        type: array
        element: text
        default: "ARRAY[]::TEXT[]"

  - name: user_sessions
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        unique: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: user_data
        type: json
        not_null: true
      - name: last_login
        type: timestamp
        default: NOW()
      - name: session_count
        type: integer
        default: "1"
      - name: preferences
        type: json
        default: "'{}'"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

  - name: market_alerts
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: alert_name
        type: text
        not_null: true
      - name: alert_type
        type: text
        not_null: true
      - name: location
        type: text
      - name: criteria
        type: json
        not_null: true
      - name: threshold
        type: decimal
        check: "threshold >= 0"
      - name: notification_method
        type: text
        default: "'email'"
      - name: is_active
        type: boolean
        default: "TRUE"
      - name: last_triggered
        type: timestamp
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

  - name: property_comparisons
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: comparison_name
        type: text
      - name: property_ids
        type: array
        element: integer
        not_null: true
      - name: comparison_data
        type: json
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

  - name: user_preferences
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        unique: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: notifications
        type: json
        default: "'{}'"
      - name: display_settings
        type: json
        default: "'{}'"
      - name: api_settings
        type: json
        default: "'{}'"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

  - name: portfolio_analytics
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: calculation_date
        type: date
        default: CURRENT_DATE
      - name: total_properties
        type: integer
        default: "0"
      - name: total_value
        type: decimal
        default: "0"
      - name: total_monthly_rent
        type: decimal
        default: "0"
      - name: average_cap_rate
        type: decimal
        default: "0"
      - name: total_cash_flow
        type: decimal
        default: "0"
      - name: metrics
        type: json
        default: "'{}'"
      - name: created_at
        type: timestamp
        default: NOW()

  - name: saved_searches
    columns:
      - name: id
        type: integer
        primary: true
      - name: user_id
        type: integer
        not_null: true
        references:
          entity: users
          column: id
          on_delete: CASCADE
      - name: search_name
        type: text
        not_null: true
      - name: search_criteria
        type: json
        not_null: true
      - name: auto_notify
        type: boolean
        default: "FALSE"
      - name: last_run
        type: timestamp
      - name: results_count
        type: integer
        default: "0"
      - name: created_at
        type: timestamp
        default: NOW()
      - name: updated_at
        type: timestamp
        default: NOW()

# Index kinds:
#   plain      - one column; json columns must use the gin method
#   partial    - columns plus a filter predicate
#   expression - one decoded json path; -> hops allowed, ending in a single ->>
#   array      - gin index over an array column
#   composite  - two or more columns
indexes:
  - name: idx_properties_data
    entity: properties
    kind: plain
    columns: [data]
    method: gin

  - name: idx_properties_price
    entity: properties
    kind: expression
    expression: "(data->>'price')::numeric"

  - name: idx_properties_city
    entity: properties
    kind: expression
    expression: "data->>'city'"

  - name: idx_properties_favorites
    entity: properties
    kind: partial
    columns: [user_id]
    where: "is_favorite = TRUE"

  - name: idx_properties_tags
    entity: properties
    kind: array
    columns: [tags]

  - name: idx_api_usage_user_created
    entity: api_usage
    kind: composite
    columns: [user_id, created_at]

  - name: idx_market_alerts_active
    entity: market_alerts
    kind: partial
    columns: [user_id]
    where: "is_active = TRUE"

  - name: idx_saved_searches_user
    entity: saved_searches
    kind: plain
    columns: [user_id]

# Policies tie rows to their owner column. An "all" policy may not
# coexist with operation-specific policies on the same entity.
policies:
  - entity: properties
    operation: read
    using: "auth.uid() = user_id"
  - entity: properties
    operation: insert
    with_check: "auth.uid() = user_id"
  - entity: properties
    operation: update
    using: "auth.uid() = user_id"
    with_check: "auth.uid() = user_id"
  - entity: properties
    operation: delete
    using: "auth.uid() = user_id"

  - entity: market_alerts
    operation: all
    using: "auth.uid() = user_id"
    with_check: "auth.uid() = user_id"

  - entity: saved_searches
    operation: read
    using: "auth.uid() = user_id"
  - entity: saved_searches
    operation: insert
    with_check: "auth.uid() = user_id"

  - entity: user_preferences
    operation: all
    using: "auth.uid() = user_id"
    with_check: "auth.uid() = user_id"

  - entity: portfolio_analytics
    operation: read
    using: "auth.uid() = user_id"
`
