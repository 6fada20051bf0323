package catalog

import "fmt"

// Validation failures below are all detected while building a Catalog.
// None of them can occur during planning: a Catalog that loaded is a
// Catalog the planner can trust.

// DependencyOrderError reports an entity whose foreign relationship
// points at an entity declared later (or not at all). Declaration order
// doubles as creation order, so forward references cannot be honored.
type DependencyOrderError struct {
	Entity     string
	References string
}

func (e *DependencyOrderError) Error() string {
	return fmt.Sprintf("entity %q references %q, which is not declared before it", e.Entity, e.References)
}

// InvalidIndexExpressionError reports an expression index that would be
// rejected by the backend: it must decode exactly one json path from a
// column declared on the owning entity. Whole-document containment
// belongs on a gin index over the column itself, never on an
// expression index.
type InvalidIndexExpressionError struct {
	Index  string
	Reason string
}

func (e *InvalidIndexExpressionError) Error() string {
	return fmt.Sprintf("index %q: %s", e.Index, e.Reason)
}

// TypeMismatchError reports an index kind applied to a column of the
// wrong semantic type (e.g. an array index over a text column).
type TypeMismatchError struct {
	Index  string
	Column string
	Want   ColumnType
	Got    ColumnType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("index %q: column %q must be %s, got %s", e.Index, e.Column, e.Want, e.Got)
}

// PolicyConflictError reports ambiguous policy precedence: an "all"
// policy coexisting with an operation-specific one, or two policies for
// the same operation on the same entity.
type PolicyConflictError struct {
	Entity string
	Reason string
}

func (e *PolicyConflictError) Error() string {
	return fmt.Sprintf("policies on %q conflict: %s", e.Entity, e.Reason)
}
