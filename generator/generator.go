package generator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/propstack/reconcilo/catalog"
	"github.com/propstack/reconcilo/planner"
)

// GenerateSQL renders a plan as backend-native statements, one per
// action, in plan order.
func GenerateSQL(plan planner.Plan) ([]string, error) {
	var stmts []string
	for _, action := range plan.Actions {
		stmt, err := Statement(action)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// Statement renders a single action. Statements use idempotent forms
// (IF NOT EXISTS) wherever the backend offers one; CREATE POLICY has
// no such form, so duplicate-object errors are the executor's concern.
func Statement(action planner.Action) (string, error) {
	switch action.Kind {
	case planner.CreateEntity:
		if action.Entity == nil {
			return "", fmt.Errorf("create_entity %s: missing definition", action.Target)
		}
		return createTable(*action.Entity), nil

	case planner.CreateIndex:
		if action.Index == nil {
			return "", fmt.Errorf("create_index %s: missing definition", action.Target)
		}
		return createIndex(*action.Index), nil

	case planner.EnableRowSecurity:
		return fmt.Sprintf(`ALTER TABLE "%s" ENABLE ROW LEVEL SECURITY;`, action.Target), nil

	case planner.CreatePolicy:
		if action.Policy == nil {
			return "", fmt.Errorf("create_policy %s: missing definition", action.Target)
		}
		return createPolicy(*action.Policy), nil

	default:
		return "", fmt.Errorf("unsupported action: %s", action.Kind)
	}
}

func createTable(e catalog.Entity) string {
	var cols []string
	for _, col := range e.Columns {
		def := fmt.Sprintf(`"%s" %s`, col.Name, columnSQL(col))
		if col.Primary {
			def += " PRIMARY KEY"
		}
		if col.Unique {
			def += " UNIQUE"
		}
		if col.NotNull {
			def += " NOT NULL"
		}
		if col.Default != nil {
			def += fmt.Sprintf(" DEFAULT %s", *col.Default)
		}
		if col.Check != "" {
			def += fmt.Sprintf(" CHECK (%s)", col.Check)
		}
		if col.References != nil {
			def += fmt.Sprintf(` REFERENCES "%s" ("%s")`, col.References.Entity, col.References.Column)
			if col.References.OnDelete != "" {
				def += fmt.Sprintf(" ON DELETE %s", col.References.OnDelete)
			}
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (%s);`, e.Name, strings.Join(cols, ", "))
}

// columnSQL maps a semantic column type to its PostgreSQL type name.
// Primary integer columns become identity sequences, matching the
// backend's convention for surrogate keys.
func columnSQL(col catalog.Column) string {
	switch col.Type {
	case catalog.TypeInteger:
		if col.Primary {
			return "BIGSERIAL"
		}
		return "INTEGER"
	case catalog.TypeBigint:
		if col.Primary {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case catalog.TypeText:
		return "TEXT"
	case catalog.TypeBoolean:
		return "BOOLEAN"
	case catalog.TypeDecimal:
		return "NUMERIC"
	case catalog.TypeTimestamp:
		return "TIMESTAMPTZ"
	case catalog.TypeDate:
		return "DATE"
	case catalog.TypeJSON:
		return "JSONB"
	case catalog.TypeArray:
		elem := col.Element
		if elem == "" {
			elem = catalog.TypeText
		}
		return columnSQL(catalog.Column{Type: elem}) + "[]"
	default:
		return strings.ToUpper(string(col.Type))
	}
}

func createIndex(idx catalog.Index) string {
	stmt := "CREATE"
	if idx.Unique {
		stmt += " UNIQUE"
	}
	stmt += fmt.Sprintf(` INDEX IF NOT EXISTS "%s" ON "%s"`, idx.Name, idx.Entity)

	method := idx.Method
	if method == "" && idx.Kind == catalog.IndexArray {
		method = "gin"
	}
	if method != "" && method != "btree" {
		stmt += fmt.Sprintf(" USING %s", method)
	}

	if idx.Kind == catalog.IndexExpression {
		stmt += fmt.Sprintf(" ((%s))", idx.Expression)
	} else {
		quoted := make([]string, len(idx.Columns))
		for i, col := range idx.Columns {
			quoted[i] = fmt.Sprintf(`"%s"`, col)
		}
		stmt += fmt.Sprintf(" (%s)", strings.Join(quoted, ", "))
	}

	if idx.Where != "" {
		stmt += fmt.Sprintf(" WHERE %s", idx.Where)
	}
	return stmt + ";"
}

func createPolicy(p catalog.Policy) string {
	stmt := fmt.Sprintf(`CREATE POLICY "%s" ON "%s" FOR %s`, p.PolicyName(), p.Entity, policyCommand(p.Operation))

	// INSERT policies only take WITH CHECK; everything else takes USING.
	if p.Operation != catalog.OpInsert && p.Using != "" {
		stmt += fmt.Sprintf(" USING (%s)", p.Using)
	}
	check := p.WithCheck
	if p.Operation == catalog.OpInsert && check == "" {
		check = p.Using
	}
	if check != "" && p.Operation != catalog.OpRead && p.Operation != catalog.OpDelete {
		stmt += fmt.Sprintf(" WITH CHECK (%s)", check)
	}
	return stmt + ";"
}

func policyCommand(op catalog.Operation) string {
	switch op {
	case catalog.OpRead:
		return "SELECT"
	case catalog.OpInsert:
		return "INSERT"
	case catalog.OpUpdate:
		return "UPDATE"
	case catalog.OpDelete:
		return "DELETE"
	default:
		return "ALL"
	}
}

// WritePlanFile saves the statements into a timestamped .sql file under
// plans/. The file is an export artifact for manual or scripted
// application, not tracked state: re-planning always starts from the
// live backend, never from a previous file.
func WritePlanFile(stmts []string) (string, error) {
	if _, err := os.Stat("plans"); os.IsNotExist(err) {
		if err := os.Mkdir("plans", 0755); err != nil {
			return "", fmt.Errorf("creating plans folder: %v", err)
		}
	}

	timestamp := time.Now().Format("20060102150405")
	filename := fmt.Sprintf("plans/%s_plan.sql", timestamp)

	content := "-- Plan: " + timestamp + "\n"
	content += "-- One statement per action; safe to re-apply.\n\n"
	for _, stmt := range stmts {
		content += stmt + "\n"
	}

	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing plan file: %v", err)
	}
	return filename, nil
}
