package introspect

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propstack/reconcilo/catalog"
)

// LiveState is a point-in-time snapshot of the backend objects the
// planner reconciles against: table names, index names, row-security
// flags and policy (entity, operation) pairs, all in the public schema.
type LiveState struct {
	Entities    map[string]bool
	Indexes     map[string]bool
	RowSecurity map[string]bool
	Policies    map[PolicyKey]bool
}

type PolicyKey struct {
	Entity    string
	Operation catalog.Operation
}

// IntrospectionTimeoutError reports that the snapshot could not be
// taken within the caller's deadline. No partial snapshot is returned:
// planning against a guessed live state would re-create existing objects.
type IntrospectionTimeoutError struct {
	Err error
}

func (e *IntrospectionTimeoutError) Error() string {
	return fmt.Sprintf("introspection timed out: %v", e.Err)
}

func (e *IntrospectionTimeoutError) Unwrap() error { return e.Err }

// Snapshot introspects the backend. The caller controls cancellation
// and timeout through ctx; a deadline hit surfaces as
// *IntrospectionTimeoutError.
func Snapshot(ctx context.Context, pool *pgxpool.Pool) (*LiveState, error) {
	live := &LiveState{
		Entities:    make(map[string]bool),
		Indexes:     make(map[string]bool),
		RowSecurity: make(map[string]bool),
		Policies:    make(map[PolicyKey]bool),
	}

	if err := getTables(ctx, pool, live); err != nil {
		return nil, timeoutOr(err, "querying tables")
	}
	if err := getIndexes(ctx, pool, live); err != nil {
		return nil, timeoutOr(err, "querying indexes")
	}
	if err := getRowSecurity(ctx, pool, live); err != nil {
		return nil, timeoutOr(err, "querying row security")
	}
	if err := getPolicies(ctx, pool, live); err != nil {
		return nil, timeoutOr(err, "querying policies")
	}

	return live, nil
}

func timeoutOr(err error, doing string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &IntrospectionTimeoutError{Err: err}
	}
	return fmt.Errorf("%s: %v", doing, err)
}

func getTables(ctx context.Context, pool *pgxpool.Pool, live *LiveState) error {
	rows, err := pool.Query(ctx, `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	ORDER BY table_name;
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		live.Entities[name] = true
	}
	return rows.Err()
}

func getIndexes(ctx context.Context, pool *pgxpool.Pool, live *LiveState) error {
	rows, err := pool.Query(ctx, `
	SELECT indexname
	FROM pg_indexes
	WHERE schemaname = 'public'
	ORDER BY indexname;
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		live.Indexes[name] = true
	}
	return rows.Err()
}

func getRowSecurity(ctx context.Context, pool *pgxpool.Pool, live *LiveState) error {
	rows, err := pool.Query(ctx, `
	SELECT c.relname
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE n.nspname = 'public' AND c.relkind = 'r' AND c.relrowsecurity;
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		live.RowSecurity[name] = true
	}
	return rows.Err()
}

func getPolicies(ctx context.Context, pool *pgxpool.Pool, live *LiveState) error {
	rows, err := pool.Query(ctx, `
	SELECT tablename, cmd
	FROM pg_policies
	WHERE schemaname = 'public';
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var table, cmd string
		if err := rows.Scan(&table, &cmd); err != nil {
			return err
		}
		live.Policies[PolicyKey{Entity: table, Operation: operationFromCmd(cmd)}] = true
	}
	return rows.Err()
}

// operationFromCmd maps pg_policies.cmd back to the catalog operation set.
func operationFromCmd(cmd string) catalog.Operation {
	switch cmd {
	case "SELECT":
		return catalog.OpRead
	case "INSERT":
		return catalog.OpInsert
	case "UPDATE":
		return catalog.OpUpdate
	case "DELETE":
		return catalog.OpDelete
	default:
		return catalog.OpAll
	}
}
