package catalog

// ColumnType is the closed set of semantic column types the planner
// understands. Mapping to backend-native type names is the generator's
// concern, not the catalog's.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeBigint    ColumnType = "bigint"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeDecimal   ColumnType = "decimal"
	TypeTimestamp ColumnType = "timestamp"
	TypeDate      ColumnType = "date"
	TypeJSON      ColumnType = "json"
	TypeArray     ColumnType = "array"
)

// Entity is a declared table. Column order is declaration order.
type Entity struct {
	Name    string
	Columns []Column
}

type Column struct {
	Name       string
	Type       ColumnType
	Element    ColumnType // element type when Type is array (defaults to text)
	Primary    bool
	Unique     bool
	NotNull    bool
	Default    *string
	Check      string // optional check-constraint predicate
	References *Reference
}

// Reference is a foreign relationship to another declared entity.
// The referenced entity must be declared at or before the referencing one.
type Reference struct {
	Entity   string
	Column   string
	OnDelete string // CASCADE, SET NULL, RESTRICT, ...
}

type IndexKind string

const (
	IndexPlain      IndexKind = "plain"
	IndexPartial    IndexKind = "partial"
	IndexExpression IndexKind = "expression"
	IndexArray      IndexKind = "array"
	IndexComposite  IndexKind = "composite"
)

type Index struct {
	Name       string
	Entity     string
	Kind       IndexKind
	Columns    []string
	Expression string // expression kind: exactly one decoded json path
	Where      string // partial kind: filter predicate
	Unique     bool
	Method     string // btree when empty; gin for containment and array indexes
}

// Operation is the statement class an access policy applies to.
type Operation string

const (
	OpRead   Operation = "read"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpAll    Operation = "all"
)

// Policy is a row-visibility rule tying rows to their owner. Policies
// only take effect once row-level security is enabled on the entity;
// the planner orders the enable action ahead of policy creation.
type Policy struct {
	Name      string // derived from entity and operation when empty
	Entity    string
	Operation Operation
	Using     string // ownership predicate, e.g. auth.uid() = user_id
	WithCheck string // optional write-side predicate
}

// PolicyName returns the declared name, or the conventional
// <entity>_<operation>_policy when none was given. Live-state matching
// relies on this being stable.
func (p Policy) PolicyName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Entity + "_" + string(p.Operation) + "_policy"
}
