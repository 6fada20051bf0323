package catalog

import (
	"fmt"
	"strings"
)

// Catalog is the validated, immutable set of entity, index and policy
// declarations. Build one with New at process start; every accessor is
// safe for concurrent use because nothing mutates after New returns.
type Catalog struct {
	entities []Entity
	order    map[string]int
	indexes  map[string][]Index
	policies map[string][]Policy
}

// New validates the declarations eagerly and fails fast on the first
// problem. A partially-valid catalog is never returned.
func New(entities []Entity, indexes []Index, policies []Policy) (*Catalog, error) {
	// Copy the declarations so immutability does not depend on the
	// caller leaving its slices alone after New returns.
	entities = copyEntities(entities)
	indexes = copyIndexes(indexes)
	policies = append([]Policy(nil), policies...)

	c := &Catalog{
		entities: entities,
		order:    make(map[string]int),
		indexes:  make(map[string][]Index),
		policies: make(map[string][]Policy),
	}

	for i, e := range entities {
		if err := validateIdentifier("entity", e.Name); err != nil {
			return nil, err
		}
		if _, dup := c.order[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		c.order[e.Name] = i
		if err := validateColumns(e); err != nil {
			return nil, err
		}
	}

	if err := c.scanForwardReferences(); err != nil {
		return nil, err
	}

	seenIdx := make(map[string]bool)
	for _, idx := range indexes {
		if err := validateIdentifier("index", idx.Name); err != nil {
			return nil, err
		}
		if seenIdx[idx.Name] {
			return nil, fmt.Errorf("duplicate index %q", idx.Name)
		}
		seenIdx[idx.Name] = true
		if err := c.validateIndex(idx); err != nil {
			return nil, err
		}
		c.indexes[idx.Entity] = append(c.indexes[idx.Entity], idx)
	}

	for _, p := range policies {
		if err := c.validatePolicy(p); err != nil {
			return nil, err
		}
		c.policies[p.Entity] = append(c.policies[p.Entity], p)
	}

	return c, nil
}

// Entities returns the declared entities in declaration order, which is
// also the creation-dependency order.
func (c *Catalog) Entities() []Entity {
	out := make([]Entity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Entity looks up a declared entity by name.
func (c *Catalog) Entity(name string) (Entity, bool) {
	i, ok := c.order[name]
	if !ok {
		return Entity{}, false
	}
	return c.entities[i], true
}

// IndexesFor returns the indexes declared on an entity, in declaration order.
func (c *Catalog) IndexesFor(entity string) []Index {
	out := make([]Index, len(c.indexes[entity]))
	copy(out, c.indexes[entity])
	return out
}

// PoliciesFor returns the access policies declared on an entity, in
// declaration order.
func (c *Catalog) PoliciesFor(entity string) []Policy {
	out := make([]Policy, len(c.policies[entity]))
	copy(out, c.policies[entity])
	return out
}

func validateColumns(e Entity) error {
	if len(e.Columns) == 0 {
		return fmt.Errorf("entity %q has no columns", e.Name)
	}

	seen := make(map[string]bool)
	primaries := 0
	for _, col := range e.Columns {
		if err := validateIdentifier("column", col.Name); err != nil {
			return fmt.Errorf("entity %q: %v", e.Name, err)
		}
		if seen[col.Name] {
			return fmt.Errorf("entity %q: duplicate column %q", e.Name, col.Name)
		}
		seen[col.Name] = true

		if !validColumnType(col.Type) {
			return fmt.Errorf("entity %q: column %q has unknown type %q", e.Name, col.Name, col.Type)
		}
		if col.Element != "" && col.Type != TypeArray {
			return fmt.Errorf("entity %q: column %q sets an element type but is not an array", e.Name, col.Name)
		}
		if col.Element != "" && (col.Element == TypeArray || !validColumnType(col.Element)) {
			return fmt.Errorf("entity %q: column %q has invalid element type %q", e.Name, col.Name, col.Element)
		}
		if col.Primary {
			primaries++
		}
	}

	if primaries != 1 {
		return fmt.Errorf("entity %q must have exactly one primary column, found %d", e.Name, primaries)
	}
	return nil
}

// scanForwardReferences runs the single forward-reference pass over the
// declaration order: a column may reference its own entity or any
// entity declared earlier, never a later one.
func (c *Catalog) scanForwardReferences() error {
	for i, e := range c.entities {
		for _, col := range e.Columns {
			if col.References == nil {
				continue
			}
			ref := col.References
			pos, ok := c.order[ref.Entity]
			if !ok || pos > i {
				return &DependencyOrderError{Entity: e.Name, References: ref.Entity}
			}
			target := c.entities[pos]
			if !hasColumn(target, ref.Column) {
				return fmt.Errorf("entity %q: column %q references unknown column %s.%s",
					e.Name, col.Name, ref.Entity, ref.Column)
			}
		}
	}
	return nil
}

func (c *Catalog) validateIndex(idx Index) error {
	i, ok := c.order[idx.Entity]
	if !ok {
		return fmt.Errorf("index %q targets undeclared entity %q", idx.Name, idx.Entity)
	}
	owner := c.entities[i]

	for _, colName := range idx.Columns {
		if !hasColumn(owner, colName) {
			return fmt.Errorf("index %q references unknown column %s.%s", idx.Name, idx.Entity, colName)
		}
	}

	switch idx.Kind {
	case IndexPlain:
		if len(idx.Columns) != 1 {
			return fmt.Errorf("index %q: plain indexes target exactly one column", idx.Name)
		}
		col, _ := columnOf(owner, idx.Columns[0])
		if col.Type == TypeJSON && idx.Method != "gin" {
			return &InvalidIndexExpressionError{
				Index:  idx.Name,
				Reason: fmt.Sprintf("whole-document index on json column %q must use the gin method", col.Name),
			}
		}

	case IndexPartial:
		if len(idx.Columns) == 0 {
			return fmt.Errorf("index %q: partial indexes need at least one column", idx.Name)
		}
		if strings.TrimSpace(idx.Where) == "" {
			return fmt.Errorf("index %q: partial indexes need a filter predicate", idx.Name)
		}

	case IndexExpression:
		if len(idx.Columns) != 0 {
			return fmt.Errorf("index %q: expression indexes take an expression, not columns", idx.Name)
		}
		if err := validateExpression(idx, owner); err != nil {
			return err
		}

	case IndexArray:
		if len(idx.Columns) != 1 {
			return fmt.Errorf("index %q: array indexes target exactly one column", idx.Name)
		}
		col, _ := columnOf(owner, idx.Columns[0])
		if col.Type != TypeArray {
			return &TypeMismatchError{Index: idx.Name, Column: col.Name, Want: TypeArray, Got: col.Type}
		}

	case IndexComposite:
		if len(idx.Columns) < 2 {
			return fmt.Errorf("index %q: composite indexes need at least two columns", idx.Name)
		}

	default:
		return fmt.Errorf("index %q has unknown kind %q", idx.Name, idx.Kind)
	}

	return nil
}

// validateExpression enforces the rules a backend would only reject at
// apply time: one decoded path per expression index, decoding a json
// column that the owning entity actually declares, and no containment
// operators smuggled into the expression.
func validateExpression(idx Index, owner Entity) error {
	expr := strings.TrimSpace(idx.Expression)
	if expr == "" {
		return &InvalidIndexExpressionError{Index: idx.Name, Reason: "empty expression"}
	}
	if strings.Contains(expr, "@>") || strings.Contains(expr, "<@") {
		return &InvalidIndexExpressionError{
			Index:  idx.Name,
			Reason: "containment queries need a gin index on the column, not an expression index",
		}
	}
	if n := strings.Count(expr, "->>"); n != 1 {
		return &InvalidIndexExpressionError{
			Index:  idx.Name,
			Reason: fmt.Sprintf("expression must decode exactly one path, found %d", n),
		}
	}
	// Interior -> hops are fine (data->'address'->>'city'), but the
	// chain must end at the single ->> scalar decode: anything decoded
	// past it operates on text, which the backend rejects.
	after := expr[strings.Index(expr, "->>")+len("->>"):]
	if strings.Contains(after, "->") {
		return &InvalidIndexExpressionError{
			Index:  idx.Name,
			Reason: "expression must end in a single ->> scalar decode",
		}
	}

	colName := decodedColumn(expr)
	if colName == "" {
		return &InvalidIndexExpressionError{Index: idx.Name, Reason: "cannot determine the decoded column"}
	}
	col, ok := columnOf(owner, colName)
	if !ok {
		return &InvalidIndexExpressionError{
			Index:  idx.Name,
			Reason: fmt.Sprintf("expression references column %q, not declared on %q", colName, owner.Name),
		}
	}
	if col.Type != TypeJSON {
		return &InvalidIndexExpressionError{
			Index:  idx.Name,
			Reason: fmt.Sprintf("expression decodes column %q of type %s, expected json", colName, col.Type),
		}
	}
	return nil
}

// decodedColumn extracts the identifier at the head of the decode
// chain, e.g. `(data->>'price')::numeric` and `data->'address'->>'city'`
// both yield "data".
func decodedColumn(expr string) string {
	left := strings.TrimRight(expr[:strings.Index(expr, "->")], " \t")
	end := len(left)
	start := end
	for start > 0 && isIdentChar(left[start-1]) {
		start--
	}
	return left[start:end]
}

func (c *Catalog) validatePolicy(p Policy) error {
	if _, ok := c.order[p.Entity]; !ok {
		return fmt.Errorf("policy %q targets undeclared entity %q", p.PolicyName(), p.Entity)
	}
	switch p.Operation {
	case OpRead, OpInsert, OpUpdate, OpDelete, OpAll:
	default:
		return fmt.Errorf("policy %q has unknown operation %q", p.PolicyName(), p.Operation)
	}
	if strings.TrimSpace(p.Using) == "" && strings.TrimSpace(p.WithCheck) == "" {
		return fmt.Errorf("policy %q has no predicate", p.PolicyName())
	}

	for _, prior := range c.policies[p.Entity] {
		if prior.Operation == OpAll || p.Operation == OpAll {
			return &PolicyConflictError{
				Entity: p.Entity,
				Reason: fmt.Sprintf("%q cannot coexist with %q (ambiguous precedence)", p.Operation, prior.Operation),
			}
		}
		if prior.Operation == p.Operation {
			return &PolicyConflictError{
				Entity: p.Entity,
				Reason: fmt.Sprintf("two policies declared for operation %q", p.Operation),
			}
		}
	}
	return nil
}

func copyEntities(entities []Entity) []Entity {
	out := make([]Entity, len(entities))
	for i, e := range entities {
		e.Columns = append([]Column(nil), e.Columns...)
		for j, col := range e.Columns {
			if col.References != nil {
				ref := *col.References
				e.Columns[j].References = &ref
			}
		}
		out[i] = e
	}
	return out
}

func copyIndexes(indexes []Index) []Index {
	out := make([]Index, len(indexes))
	for i, idx := range indexes {
		idx.Columns = append([]string(nil), idx.Columns...)
		out[i] = idx
	}
	return out
}

func hasColumn(e Entity, name string) bool {
	_, ok := columnOf(e, name)
	return ok
}

func columnOf(e Entity, name string) (Column, bool) {
	for _, col := range e.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

func validColumnType(t ColumnType) bool {
	switch t {
	case TypeInteger, TypeBigint, TypeText, TypeBoolean, TypeDecimal,
		TypeTimestamp, TypeDate, TypeJSON, TypeArray:
		return true
	}
	return false
}

// validateIdentifier applies PostgreSQL identifier rules: non-empty,
// at most 63 bytes, letters/digits/underscores only.
func validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > 63 {
		return fmt.Errorf("%s name %q is too long (max 63 characters)", kind, name)
	}
	for i := 0; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return fmt.Errorf("%s name %q contains invalid character %q", kind, name, name[i])
		}
	}
	return nil
}

func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
