// Package schema defines the dialect-neutral, immutable representation of a
// relational database schema: tables, columns, indexes, and foreign keys.
// Values in this package are produced once by a dialect parser and borrowed
// by every downstream component (dependency engine, relationship detector,
// emitters, comparator) — none of them mutate what they receive.
package schema

// Type is the closed canonical type vocabulary every dialect parser
// normalizes into. It is distinct from Column.NativeType, which preserves
// the raw string read from the catalog.
type Type string

const (
	TypeTinyInteger   Type = "tinyInteger"
	TypeSmallInteger  Type = "smallInteger"
	TypeMediumInteger Type = "mediumInteger"
	TypeInteger       Type = "integer"
	TypeBigInteger    Type = "bigInteger"

	TypeFloat  Type = "float"
	TypeDouble Type = "double"

	TypeDecimal Type = "decimal"

	TypeChar       Type = "char"
	TypeVarchar    Type = "varchar"
	TypeText       Type = "text"
	TypeMediumText Type = "mediumtext"
	TypeLongText   Type = "longtext"
	TypeTinyText   Type = "tinytext"

	TypeBinary Type = "binary"
	TypeBlob   Type = "blob"

	TypeDate        Type = "date"
	TypeTime        Type = "time"
	TypeDateTime    Type = "datetime"
	TypeTimestamp   Type = "timestamp"
	TypeTimestampTZ Type = "timestamp-tz"
	TypeYear        Type = "year"

	TypeJSON  Type = "json"
	TypeJSONB Type = "jsonb"

	TypeBoolean Type = "boolean"

	TypeUUID Type = "uuid"
	TypeULID Type = "ulid"

	TypeEnum Type = "enum"
	TypeSet  Type = "set"

	TypePoint   Type = "point"
	TypePolygon Type = "polygon"
	TypeSpatial Type = "spatial"
)

// IntegerFamily reports whether t is one of the integer canonical types.
// Several invariants (autoIncrement eligibility, the identity-column
// shorthand in the creation-script emitter) key off this family.
func (t Type) IntegerFamily() bool {
	switch t {
	case TypeTinyInteger, TypeSmallInteger, TypeMediumInteger, TypeInteger, TypeBigInteger:
		return true
	}
	return false
}

func (t Type) Temporal() bool {
	switch t {
	case TypeDate, TypeTime, TypeDateTime, TypeTimestamp, TypeTimestampTZ, TypeYear:
		return true
	}
	return false
}

func (t Type) Textual() bool {
	switch t {
	case TypeChar, TypeVarchar, TypeText, TypeMediumText, TypeLongText, TypeTinyText:
		return true
	}
	return false
}

// IndexKind is the closed vocabulary of index kinds spec'd for Index.Kind.
type IndexKind string

const (
	IndexPrimary  IndexKind = "primary"
	IndexUnique   IndexKind = "unique"
	IndexPlain    IndexKind = "index"
	IndexFulltext IndexKind = "fulltext"
	IndexSpatial  IndexKind = "spatial"
)

// IndexAlgorithm is a hint carried alongside Index, not enforced by any
// invariant here — dialects that lack the concept simply leave it empty.
type IndexAlgorithm string

const (
	AlgorithmBTree IndexAlgorithm = "btree"
	AlgorithmHash  IndexAlgorithm = "hash"
)

// FKAction is the closed vocabulary for ForeignKey.OnDelete/OnUpdate.
type FKAction string

const (
	ActionCascade    FKAction = "cascade"
	ActionSetNull    FKAction = "set_null"
	ActionSetDefault FKAction = "set_default"
	ActionRestrict   FKAction = "restrict"
	ActionNoAction   FKAction = "no_action"
)

// DefaultKind distinguishes a literal default value from a raw SQL
// expression default (CURRENT_TIMESTAMP, NOW(), UUID(), nextval(...)).
// Emitters must wrap DefaultKindExpression values in a raw-SQL marker
// rather than quoting them.
type DefaultKind string

const (
	DefaultKindNull       DefaultKind = "null"
	DefaultKindString     DefaultKind = "string"
	DefaultKindInt        DefaultKind = "int"
	DefaultKindFloat      DefaultKind = "float"
	DefaultKindBool       DefaultKind = "bool"
	DefaultKindExpression DefaultKind = "expression"
)

// Default carries a column's default value normalized to a typed form,
// per spec.md §4.1's default-value parsing rules.
type Default struct {
	Kind  DefaultKind
	Text  string // raw text, always populated
	Int   int64  // valid when Kind == DefaultKindInt
	Float float64
	Bool  bool
}

// Attributes is the well-known-flag bag described by spec.md §9: a small
// discriminated set of flags every dialect parser may set, plus an escape
// hatch for anything dialect-specific that doesn't deserve a first-class
// field. The dialect parsers in this module do not populate Extra; it is
// nil unless a caller sets it.
type Attributes struct {
	Primary    bool
	Computed   bool
	MaxVarchar int
	EnumValues []string
	Extra      map[string]string
}

// Column is an immutable description of one table column.
type Column struct {
	Name          string
	Type          Type
	NativeType    string
	Nullable      bool
	AutoIncrement bool
	Unsigned      bool
	Length        int
	HasLength     bool
	Precision     int
	HasPrecision  bool
	Scale         int
	HasScale      bool
	Charset       string
	Collation     string
	Comment       string
	Default       *Default
	Attributes    Attributes
}

// Validate checks the invariants spec.md §3 attaches to Column: scale ≤
// precision when both are set, autoIncrement implies integer family, and
// enum_values is non-empty for enum/set columns.
func (c Column) Validate() error {
	if c.HasScale && c.HasPrecision && c.Scale > c.Precision {
		return &InvariantError{Subject: "column " + c.Name, Reason: "scale exceeds precision"}
	}
	if c.AutoIncrement && !c.Type.IntegerFamily() {
		return &InvariantError{Subject: "column " + c.Name, Reason: "auto-increment on non-integer type"}
	}
	if (c.Type == TypeEnum || c.Type == TypeSet) && len(c.Attributes.EnumValues) == 0 {
		return &InvariantError{Subject: "column " + c.Name, Reason: "enum/set type with no values"}
	}
	return nil
}

// Index is an immutable description of one table index.
type Index struct {
	Name      string
	Kind      IndexKind
	Columns   []string
	Algorithm IndexAlgorithm
}

// IsComposite reports whether the index spans more than one column.
func (i Index) IsComposite() bool {
	return len(i.Columns) > 1
}

// ForeignKey is an immutable description of one foreign-key constraint.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          FKAction
	OnUpdate          FKAction
}

// Validate checks |Columns| == |ReferencedColumns| and non-emptiness.
func (fk ForeignKey) Validate() error {
	if len(fk.Columns) == 0 {
		return &InvariantError{Subject: "foreign key " + fk.Name, Reason: "no local columns"}
	}
	if len(fk.Columns) != len(fk.ReferencedColumns) {
		return &InvariantError{Subject: "foreign key " + fk.Name, Reason: "local/referenced column count mismatch"}
	}
	return nil
}

// Table is an immutable, fully-normalized description of one database
// table, as produced by exactly one dialect Parser.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
	Engine      string
	Charset     string
	Collation   string
	Comment     string
	Attributes  map[string]string
}

// Column looks up a column by name, returning ok=false if absent.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKeyIndex returns the table's single Primary index, if any.
func (t Table) PrimaryKeyIndex() (Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Kind == IndexPrimary {
			return idx, true
		}
	}
	return Index{}, false
}

// Validate checks the table-level invariants from spec.md §3: every column
// referenced by an index or the local side of a FK must exist, at most one
// Primary index, and index names unique within the table.
func (t Table) Validate() error {
	colSet := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		colSet[c.Name] = true
		if err := c.Validate(); err != nil {
			return err
		}
	}

	seenIndexNames := make(map[string]bool, len(t.Indexes))
	primaryCount := 0
	for _, idx := range t.Indexes {
		if seenIndexNames[idx.Name] {
			return &InvariantError{Subject: "table " + t.Name, Reason: "duplicate index name " + idx.Name}
		}
		seenIndexNames[idx.Name] = true
		if idx.Kind == IndexPrimary {
			primaryCount++
		}
		if len(idx.Columns) == 0 {
			return &InvariantError{Subject: "index " + idx.Name, Reason: "no columns"}
		}
		for _, col := range idx.Columns {
			if !colSet[col] {
				return &InvariantError{Subject: "index " + idx.Name, Reason: "references missing column " + col}
			}
		}
	}
	if primaryCount > 1 {
		return &InvariantError{Subject: "table " + t.Name, Reason: "more than one primary index"}
	}

	for _, fk := range t.ForeignKeys {
		if err := fk.Validate(); err != nil {
			return err
		}
		for _, col := range fk.Columns {
			if !colSet[col] {
				return &InvariantError{Subject: "foreign key " + fk.Name, Reason: "references missing local column " + col}
			}
		}
	}

	return nil
}

// InvariantError reports a schema-model invariant violation. Parsers are
// expected never to produce one in practice; it exists so callers building
// fixtures by hand (tests, the round-trip property in spec.md §8) get a
// precise failure rather than a panic.
type InvariantError struct {
	Subject string
	Reason  string
}

func (e *InvariantError) Error() string {
	return e.Subject + ": " + e.Reason
}
