// Package typemap implements the per-dialect mapping from native SQL types
// to the canonical vocabulary in package schema, and from canonical types to
// the tokens the creation-script and class-stub emitters write out.
//
// spec.md §5 calls the custom-type-map registry the one piece of mutable
// shared state in the whole system, and requires it be written only during
// construction. Builder is that construction step: it produces an immutable
// *Map that every downstream component treats as read-only.
package typemap

import (
	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// Dialect identifies which of the four supported SQL dialects a Map or
// Builder targets.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectMariaDB  Dialect = "mariadb"
	DialectPostgres Dialect = "pgsql"
	DialectSQLite   Dialect = "sqlite"
	DialectMSSQL    Dialect = "sqlsrv"
)

// EmittedType names the token the creation-script emitter writes for a
// column method call (e.g. "string", "bigInteger", "uuid") and the
// class-stub emitter's doc-comment scalar type.
type EmittedType struct {
	Method       string // e.g. "string", "integer", "decimal"
	DocScalar    string // e.g. "int", "float", "string", "bool", "array"
}

// Map is an immutable, per-dialect lookup from native type tokens to
// schema.Type, and from schema.Type to EmittedType. Once returned from a
// Builder it is never mutated again.
type Map struct {
	dialect      Dialect
	nativeToType map[string]schema.Type
	emitted      map[schema.Type]EmittedType
}

// Dialect reports which dialect this Map was built for.
func (m *Map) Dialect() Dialect { return m.dialect }

// Canonicalize maps a native type token (already stripped of length/
// precision decoration by the caller) to the canonical vocabulary. Unknown
// tokens return schema.TypeText as the documented safe default, mirroring
// spec.md §7's "unknown catalog values degrade to a safe default" policy.
func (m *Map) Canonicalize(nativeToken string) schema.Type {
	if t, ok := m.nativeToType[nativeToken]; ok {
		return t
	}
	return schema.TypeText
}

// Emit returns the emitted-type token for a canonical type. Falls back to
// the canonical type name itself (lower-cased already) if no override was
// registered, which is always a reasonable method name for the creation
// script builder (e.g. "json", "uuid", "boolean" are their own tokens).
func (m *Map) Emit(t schema.Type) EmittedType {
	if e, ok := m.emitted[t]; ok {
		return e
	}
	return EmittedType{Method: string(t), DocScalar: docScalarFor(t)}
}

func docScalarFor(t schema.Type) string {
	switch {
	case t.IntegerFamily():
		return "int"
	case t == schema.TypeFloat, t == schema.TypeDouble, t == schema.TypeDecimal:
		return "float"
	case t.Temporal():
		return "\\Carbon\\Carbon"
	case t == schema.TypeBoolean:
		return "bool"
	case t == schema.TypeJSON, t == schema.TypeJSONB:
		return "array"
	default:
		return "string"
	}
}

// Builder accumulates native-token overrides before producing an immutable
// Map. Per spec.md §5 it is the only place mutation of type-mapping state
// is legal; the resulting Map is never written to again. This replaces the
// process-wide type-registry singleton described as a re-architecture
// target in spec.md §9 — there is no package-level mutable state anywhere
// in this module.
type Builder struct {
	dialect      Dialect
	nativeToType map[string]schema.Type
	emitted      map[schema.Type]EmittedType
}

// NewBuilder seeds a Builder with the dialect's baseline native-type table
// (spec.md §4.1's normalization rules) so callers only need to supply
// overrides from the config key `type_mappings`.
func NewBuilder(dialect Dialect) *Builder {
	b := &Builder{
		dialect:      dialect,
		nativeToType: map[string]schema.Type{},
		emitted:      map[schema.Type]EmittedType{},
	}
	for native, canonical := range baselineFor(dialect) {
		b.nativeToType[native] = canonical
	}
	for canonical, emitted := range baselineEmit() {
		b.emitted[canonical] = emitted
	}
	return b
}

// Override registers (or replaces) the canonical type for a native token.
// Intended for the `type_mappings` configuration key (spec.md §6).
func (b *Builder) Override(nativeToken string, canonical schema.Type) *Builder {
	b.nativeToType[nativeToken] = canonical
	return b
}

// OverrideEmit registers (or replaces) the emitted-type token for a
// canonical type.
func (b *Builder) OverrideEmit(canonical schema.Type, emitted EmittedType) *Builder {
	b.emitted[canonical] = emitted
	return b
}

// Build freezes the Builder into an immutable Map.
func (b *Builder) Build() *Map {
	frozenNative := make(map[string]schema.Type, len(b.nativeToType))
	for k, v := range b.nativeToType {
		frozenNative[k] = v
	}
	frozenEmit := make(map[schema.Type]EmittedType, len(b.emitted))
	for k, v := range b.emitted {
		frozenEmit[k] = v
	}
	return &Map{dialect: b.dialect, nativeToType: frozenNative, emitted: frozenEmit}
}

func baselineEmit() map[schema.Type]EmittedType {
	return map[schema.Type]EmittedType{
		schema.TypeTinyInteger:   {Method: "tinyInteger", DocScalar: "int"},
		schema.TypeSmallInteger:  {Method: "smallInteger", DocScalar: "int"},
		schema.TypeMediumInteger: {Method: "mediumInteger", DocScalar: "int"},
		schema.TypeInteger:       {Method: "integer", DocScalar: "int"},
		schema.TypeBigInteger:    {Method: "bigInteger", DocScalar: "int"},
		schema.TypeFloat:         {Method: "float", DocScalar: "float"},
		schema.TypeDouble:        {Method: "double", DocScalar: "float"},
		schema.TypeDecimal:       {Method: "decimal", DocScalar: "float"},
		schema.TypeChar:          {Method: "char", DocScalar: "string"},
		schema.TypeVarchar:       {Method: "string", DocScalar: "string"},
		schema.TypeText:          {Method: "text", DocScalar: "string"},
		schema.TypeMediumText:    {Method: "mediumText", DocScalar: "string"},
		schema.TypeLongText:      {Method: "longText", DocScalar: "string"},
		schema.TypeTinyText:      {Method: "tinyText", DocScalar: "string"},
		schema.TypeBinary:        {Method: "binary", DocScalar: "string"},
		schema.TypeBlob:          {Method: "binary", DocScalar: "string"},
		schema.TypeDate:          {Method: "date", DocScalar: "\\Carbon\\Carbon"},
		schema.TypeTime:          {Method: "time", DocScalar: "\\Carbon\\Carbon"},
		schema.TypeDateTime:      {Method: "dateTime", DocScalar: "\\Carbon\\Carbon"},
		schema.TypeTimestamp:     {Method: "timestamp", DocScalar: "\\Carbon\\Carbon"},
		schema.TypeTimestampTZ:   {Method: "timestampTz", DocScalar: "\\Carbon\\Carbon"},
		schema.TypeYear:          {Method: "year", DocScalar: "int"},
		schema.TypeJSON:          {Method: "json", DocScalar: "array"},
		schema.TypeJSONB:         {Method: "jsonb", DocScalar: "array"},
		schema.TypeBoolean:       {Method: "boolean", DocScalar: "bool"},
		schema.TypeUUID:          {Method: "uuid", DocScalar: "string"},
		schema.TypeULID:          {Method: "ulid", DocScalar: "string"},
		schema.TypeEnum:          {Method: "enum", DocScalar: "string"},
		schema.TypeSet:           {Method: "set", DocScalar: "array"},
		schema.TypePoint:         {Method: "point", DocScalar: "string"},
		schema.TypePolygon:       {Method: "polygon", DocScalar: "string"},
		schema.TypeSpatial:       {Method: "geometry", DocScalar: "string"},

		// PostgreSQL's interval has no faithful canonical representative:
		// spec.md §9 flags this explicitly and forbids silently extending
		// the vocabulary to cover it, so it maps to the textual fallback
		// and emits as a text column, losing range semantics by
		// design.
	}
}

func baselineFor(dialect Dialect) map[string]schema.Type {
	switch dialect {
	case DialectMySQL, DialectMariaDB:
		return mysqlBaseline()
	case DialectPostgres:
		return postgresBaseline()
	case DialectSQLite:
		return sqliteBaseline()
	case DialectMSSQL:
		return mssqlBaseline()
	default:
		return map[string]schema.Type{}
	}
}

func mysqlBaseline() map[string]schema.Type {
	return map[string]schema.Type{
		"tinyint":    schema.TypeTinyInteger,
		"smallint":   schema.TypeSmallInteger,
		"mediumint":  schema.TypeMediumInteger,
		"int":        schema.TypeInteger,
		"integer":    schema.TypeInteger,
		"bigint":     schema.TypeBigInteger,
		"float":      schema.TypeFloat,
		"double":     schema.TypeDouble,
		"decimal":    schema.TypeDecimal,
		"numeric":    schema.TypeDecimal,
		"char":       schema.TypeChar,
		"varchar":    schema.TypeVarchar,
		"tinytext":   schema.TypeTinyText,
		"text":       schema.TypeText,
		"mediumtext": schema.TypeMediumText,
		"longtext":   schema.TypeLongText,
		"binary":     schema.TypeBinary,
		"varbinary":  schema.TypeBinary,
		"blob":       schema.TypeBlob,
		"tinyblob":   schema.TypeBlob,
		"mediumblob": schema.TypeBlob,
		"longblob":   schema.TypeBlob,
		"date":       schema.TypeDate,
		"time":       schema.TypeTime,
		"datetime":   schema.TypeDateTime,
		"timestamp":  schema.TypeTimestamp,
		"year":       schema.TypeYear,
		"json":       schema.TypeJSON,
		"tinyint(1)": schema.TypeBoolean,
		"boolean":    schema.TypeBoolean,
		"bool":       schema.TypeBoolean,
		"enum":       schema.TypeEnum,
		"set":        schema.TypeSet,
		"point":      schema.TypePoint,
		"polygon":    schema.TypePolygon,
		"geometry":   schema.TypeSpatial,
	}
}

func postgresBaseline() map[string]schema.Type {
	return map[string]schema.Type{
		"int2":              schema.TypeSmallInteger,
		"smallint":          schema.TypeSmallInteger,
		"int4":              schema.TypeInteger,
		"integer":           schema.TypeInteger,
		"int":               schema.TypeInteger,
		"int8":              schema.TypeBigInteger,
		"bigint":            schema.TypeBigInteger,
		"smallserial":       schema.TypeSmallInteger,
		"serial":            schema.TypeInteger,
		"bigserial":         schema.TypeBigInteger,
		"real":              schema.TypeFloat,
		"float4":            schema.TypeFloat,
		"double precision":  schema.TypeDouble,
		"float8":            schema.TypeDouble,
		"numeric":           schema.TypeDecimal,
		"decimal":           schema.TypeDecimal,
		"bpchar":            schema.TypeChar,
		"char":              schema.TypeChar,
		"character":         schema.TypeChar,
		"varchar":           schema.TypeVarchar,
		"character varying": schema.TypeVarchar,
		"text":              schema.TypeText,
		"bytea":             schema.TypeBlob,
		"date":              schema.TypeDate,
		"time":              schema.TypeTime,
		"timetz":            schema.TypeTime,
		"timestamp":         schema.TypeTimestamp,
		"timestamptz":       schema.TypeTimestampTZ,
		"json":              schema.TypeJSON,
		"jsonb":             schema.TypeJSONB,
		"bool":              schema.TypeBoolean,
		"boolean":           schema.TypeBoolean,
		"uuid":              schema.TypeUUID,
		"point":             schema.TypePoint,
		"polygon":           schema.TypePolygon,
		// interval intentionally absent: falls through to the textual
		// default per spec.md §9.
	}
}

func sqliteBaseline() map[string]schema.Type {
	// SQLite's type affinity rules (spec.md §4.1) are substring-based, not
	// a fixed lookup table; Canonicalize's caller (the SQLite parser)
	// consults Map first and runs the affinity rule only for tokens Map
	// does not know, so this baseline only holds the tokens that appear
	// verbatim often enough to shortcut the rule.
	return map[string]schema.Type{
		"integer":           schema.TypeInteger,
		"int":               schema.TypeInteger,
		"text":              schema.TypeText,
		"blob":              schema.TypeBlob,
		"real":              schema.TypeDouble,
		"numeric":           schema.TypeDecimal,
		"boolean":           schema.TypeBoolean,
		"date":              schema.TypeText,
		"datetime":          schema.TypeText,
	}
}

func mssqlBaseline() map[string]schema.Type {
	return map[string]schema.Type{
		"tinyint":          schema.TypeTinyInteger,
		"smallint":         schema.TypeSmallInteger,
		"int":              schema.TypeInteger,
		"bigint":           schema.TypeBigInteger,
		"real":             schema.TypeFloat,
		"float":            schema.TypeDouble,
		"decimal":          schema.TypeDecimal,
		"numeric":          schema.TypeDecimal,
		"char":             schema.TypeChar,
		"nchar":            schema.TypeChar,
		"varchar":          schema.TypeVarchar,
		"nvarchar":         schema.TypeVarchar,
		"text":             schema.TypeText,
		"ntext":            schema.TypeText,
		"binary":           schema.TypeBinary,
		"varbinary":        schema.TypeBinary,
		"image":            schema.TypeBlob,
		"date":             schema.TypeDate,
		"time":             schema.TypeTime,
		"datetime":         schema.TypeDateTime,
		"datetime2":        schema.TypeDateTime,
		"smalldatetime":    schema.TypeDateTime,
		"datetimeoffset":   schema.TypeTimestampTZ,
		"bit":              schema.TypeBoolean,
		"uniqueidentifier": schema.TypeUUID,
	}
}

// String is a convenience for error messages and logging.
func (d Dialect) String() string { return string(d) }
