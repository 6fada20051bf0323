package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/propstack/reconcilo/generator"
	"github.com/propstack/reconcilo/planner"
)

// BackendError reports the action that failed, with the prefix of the
// plan before it already applied. Recovery is re-planning against the
// new live state, which yields exactly the remaining actions; there is
// nothing to roll back.
type BackendError struct {
	Action planner.Action
	SQL    string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("applying %s %s: %v", e.Action.Kind, e.Action.Target, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Apply executes a plan action by action, in plan order. It returns the
// number of applied actions and, on the first failure, a *BackendError.
// Duplicate-object errors are treated as already-applied: every action
// carries create-if-missing semantics, and the backend's own duplicate
// check is the safety net when two appliers race on the same entity.
func Apply(ctx context.Context, pool *pgxpool.Pool, plan planner.Plan) (int, error) {
	applied := 0
	for _, action := range plan.Actions {
		stmt, err := generator.Statement(action)
		if err != nil {
			return applied, &BackendError{Action: action, Err: err}
		}

		if _, err := pool.Exec(ctx, stmt); err != nil {
			if isDuplicateObject(err) {
				applied++
				continue
			}
			return applied, &BackendError{Action: action, SQL: stmt, Err: err}
		}
		applied++
	}
	return applied, nil
}

// isDuplicateObject matches the SQLSTATEs the backend raises when the
// object already exists: 42P07 (duplicate table/index), 42710
// (duplicate object, e.g. a policy).
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "42P07" || pgErr.Code == "42710"
}
