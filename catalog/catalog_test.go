package catalog

import (
	"errors"
	"testing"
)

func strptr(s string) *string { return &s }

func usersEntity() Entity {
	return Entity{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: TypeInteger, Primary: true},
			{Name: "email", Type: TypeText, Unique: true, NotNull: true},
			{Name: "role", Type: TypeText, Default: strptr("'subscriber'")},
		},
	}
}

func propertiesEntity() Entity {
	return Entity{
		Name: "properties",
		Columns: []Column{
			{Name: "id", Type: TypeInteger, Primary: true},
			{Name: "user_id", Type: TypeInteger, NotNull: true, References: &Reference{Entity: "users", Column: "id"}},
			{Name: "data", Type: TypeJSON, NotNull: true},
			{Name: "is_favorite", Type: TypeBoolean},
			{Name: "tags", Type: TypeArray, Element: TypeText},
		},
	}
}

func TestNewValidCatalog(t *testing.T) {
	cat, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{
			{Name: "idx_properties_data", Entity: "properties", Kind: IndexPlain, Columns: []string{"data"}, Method: "gin"},
			{Name: "idx_properties_price", Entity: "properties", Kind: IndexExpression, Expression: "(data->>'price')::numeric"},
			{Name: "idx_properties_tags", Entity: "properties", Kind: IndexArray, Columns: []string{"tags"}},
			{Name: "idx_properties_fav", Entity: "properties", Kind: IndexPartial, Columns: []string{"user_id"}, Where: "is_favorite = TRUE"},
			{Name: "idx_properties_user_data", Entity: "properties", Kind: IndexComposite, Columns: []string{"user_id", "is_favorite"}},
		},
		[]Policy{
			{Entity: "properties", Operation: OpRead, Using: "auth.uid() = user_id"},
			{Entity: "properties", Operation: OpInsert, WithCheck: "auth.uid() = user_id"},
		},
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	entities := cat.Entities()
	if len(entities) != 2 || entities[0].Name != "users" || entities[1].Name != "properties" {
		t.Errorf("Entities() lost declaration order: %+v", entities)
	}
	if got := len(cat.IndexesFor("properties")); got != 5 {
		t.Errorf("IndexesFor(properties) = %d indexes, want 5", got)
	}
	if got := len(cat.PoliciesFor("properties")); got != 2 {
		t.Errorf("PoliciesFor(properties) = %d policies, want 2", got)
	}
	if got := len(cat.IndexesFor("users")); got != 0 {
		t.Errorf("IndexesFor(users) = %d indexes, want 0", got)
	}
}

func TestForwardReferenceRejected(t *testing.T) {
	// properties declared before users, but references users.
	_, err := New([]Entity{propertiesEntity(), usersEntity()}, nil, nil)

	var depErr *DependencyOrderError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyOrderError, got %v", err)
	}
	if depErr.Entity != "properties" || depErr.References != "users" {
		t.Errorf("unexpected error details: %+v", depErr)
	}
}

func TestUndeclaredReferenceRejected(t *testing.T) {
	e := usersEntity()
	e.Columns = append(e.Columns, Column{
		Name: "org_id", Type: TypeInteger,
		References: &Reference{Entity: "organizations", Column: "id"},
	})

	var depErr *DependencyOrderError
	if _, err := New([]Entity{e}, nil, nil); !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyOrderError, got %v", err)
	}
}

func TestSelfReferenceAllowed(t *testing.T) {
	e := Entity{
		Name: "categories",
		Columns: []Column{
			{Name: "id", Type: TypeInteger, Primary: true},
			{Name: "parent_id", Type: TypeInteger, References: &Reference{Entity: "categories", Column: "id"}},
		},
	}
	if _, err := New([]Entity{e}, nil, nil); err != nil {
		t.Fatalf("self-reference should load: %v", err)
	}
}

func TestExpressionIndexUndeclaredColumn(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexExpression, Expression: "(payload->>'price')::numeric"}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestExpressionIndexMultiplePaths(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexExpression, Expression: "data->>'city' || data->>'state'"}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestExpressionIndexChainedPathAllowed(t *testing.T) {
	// Interior -> hops still decode a single scalar path.
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_properties_city", Entity: "properties", Kind: IndexExpression,
			Expression: "data->'address'->>'city'"}},
		nil,
	)
	if err != nil {
		t.Fatalf("chained single-path expression should load: %v", err)
	}
}

func TestExpressionIndexDecodePastScalarRejected(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexExpression,
			Expression: "(data->>'address')->'city'"}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestExpressionIndexContainmentRejected(t *testing.T) {
	// Containment belongs on a gin index over the column itself. A prior
	// revision of the origin system shipped exactly this defect.
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexExpression, Expression: "data @> '{}'"}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestExpressionIndexNonJSONColumn(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity()},
		[]Index{{Name: "idx_bad", Entity: "users", Kind: IndexExpression, Expression: "email->>'domain'"}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestPlainBtreeOnJSONColumnRejected(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexPlain, Columns: []string{"data"}}},
		nil,
	)

	var exprErr *InvalidIndexExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("expected InvalidIndexExpressionError, got %v", err)
	}
}

func TestArrayIndexTypeMismatch(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		[]Index{{Name: "idx_bad", Entity: "properties", Kind: IndexArray, Columns: []string{"data"}}},
		nil,
	)

	var typeErr *TypeMismatchError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected TypeMismatchError, got %v", err)
	}
	if typeErr.Want != TypeArray || typeErr.Got != TypeJSON {
		t.Errorf("unexpected error details: %+v", typeErr)
	}
}

func TestPolicyConflictAllVsSpecific(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		nil,
		[]Policy{
			{Entity: "properties", Operation: OpAll, Using: "auth.uid() = user_id"},
			{Entity: "properties", Operation: OpRead, Using: "auth.uid() = user_id"},
		},
	)

	var policyErr *PolicyConflictError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PolicyConflictError, got %v", err)
	}
	if policyErr.Entity != "properties" {
		t.Errorf("unexpected entity: %q", policyErr.Entity)
	}
}

func TestPolicyConflictDuplicateOperation(t *testing.T) {
	_, err := New(
		[]Entity{usersEntity(), propertiesEntity()},
		nil,
		[]Policy{
			{Entity: "properties", Operation: OpRead, Using: "auth.uid() = user_id"},
			{Entity: "properties", Operation: OpRead, Using: "TRUE"},
		},
	)

	var policyErr *PolicyConflictError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PolicyConflictError, got %v", err)
	}
}

func TestPrimaryKeyRule(t *testing.T) {
	none := Entity{Name: "t1", Columns: []Column{{Name: "a", Type: TypeText}}}
	if _, err := New([]Entity{none}, nil, nil); err == nil {
		t.Error("entity with no primary column should fail to load")
	}

	two := Entity{Name: "t2", Columns: []Column{
		{Name: "a", Type: TypeInteger, Primary: true},
		{Name: "b", Type: TypeInteger, Primary: true},
	}}
	if _, err := New([]Entity{two}, nil, nil); err == nil {
		t.Error("entity with two primary columns should fail to load")
	}
}

func TestDuplicateColumnRejected(t *testing.T) {
	e := Entity{Name: "t", Columns: []Column{
		{Name: "id", Type: TypeInteger, Primary: true},
		{Name: "id", Type: TypeText},
	}}
	if _, err := New([]Entity{e}, nil, nil); err == nil {
		t.Error("duplicate column names should fail to load")
	}
}

func TestPolicyNameDerivation(t *testing.T) {
	p := Policy{Entity: "properties", Operation: OpRead}
	if got := p.PolicyName(); got != "properties_read_policy" {
		t.Errorf("PolicyName() = %q, want properties_read_policy", got)
	}

	named := Policy{Name: "custom", Entity: "properties", Operation: OpRead}
	if got := named.PolicyName(); got != "custom" {
		t.Errorf("PolicyName() = %q, want custom", got)
	}
}

func TestNewCopiesCallerSlices(t *testing.T) {
	entities := []Entity{usersEntity(), propertiesEntity()}
	indexes := []Index{{Name: "idx_properties_tags", Entity: "properties", Kind: IndexArray, Columns: []string{"tags"}}}
	policies := []Policy{{Entity: "properties", Operation: OpRead, Using: "auth.uid() = user_id"}}

	cat, err := New(entities, indexes, policies)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// Mutate everything the caller handed in.
	entities[0].Name = "mutated"
	entities[1].Columns[0].Name = "mutated"
	entities[1].Columns[1].References.Entity = "mutated"
	indexes[0].Columns[0] = "mutated"
	policies[0].Entity = "mutated"

	got := cat.Entities()
	if got[0].Name != "users" || got[1].Columns[0].Name != "id" {
		t.Error("catalog aliases the caller's entity slices")
	}
	if got[1].Columns[1].References.Entity != "users" {
		t.Error("catalog aliases the caller's reference pointers")
	}
	if cat.IndexesFor("properties")[0].Columns[0] != "tags" {
		t.Error("catalog aliases the caller's index columns")
	}
	if cat.PoliciesFor("properties")[0].Entity != "properties" {
		t.Error("catalog aliases the caller's policy slice")
	}
}

func TestIdentifierRules(t *testing.T) {
	bad := Entity{Name: "bad-name", Columns: []Column{{Name: "id", Type: TypeInteger, Primary: true}}}
	if _, err := New([]Entity{bad}, nil, nil); err == nil {
		t.Error("hyphenated entity name should fail to load")
	}
}
