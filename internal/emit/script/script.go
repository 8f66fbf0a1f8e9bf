// Package script implements the Creation-Script Emitter: deterministic
// (filename, body) pairs that build every table and then every foreign key,
// in Laravel-migration-style builder syntax, per spec.md §4.4.
package script

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// File is one emitted (filename, body) pair.
type File struct {
	Name string
	Body string
}

// Emitter produces creation scripts for an already topologically ordered
// table set.
type Emitter struct {
	TypeMap             *typemap.Map
	SeparateForeignKeys bool
}

// NewEmitter returns an Emitter bound to a dialect's type map.
func NewEmitter(tm *typemap.Map, separateForeignKeys bool) *Emitter {
	return &Emitter{TypeMap: tm, SeparateForeignKeys: separateForeignKeys}
}

// defaultFKActions are the pair the emitter omits from FK-add statements
// since they match the database's own default behavior.
const (
	defaultOnDelete = schema.ActionRestrict
	defaultOnUpdate = schema.ActionNoAction
)

// Generate returns one table-creation file per table (in input order, which
// must already be topologically sound) followed, if SeparateForeignKeys is
// set, by one FK-only file per table carrying at least one foreign key.
// Filenames start at startTime and increment by one second per file so
// lexical and emission order coincide.
func (e *Emitter) Generate(tables []schema.Table, startTime time.Time) []File {
	var files []File
	ts := startTime

	for _, t := range tables {
		files = append(files, File{
			Name: filename(ts, t.Name),
			Body: e.tableCreationBody(t),
		})
		ts = ts.Add(time.Second)
	}

	if e.SeparateForeignKeys {
		for _, t := range tables {
			if len(t.ForeignKeys) == 0 {
				continue
			}
			files = append(files, File{
				Name: filename(ts, "add_foreign_keys_to_"+t.Name),
				Body: e.foreignKeyBody(t),
			})
			ts = ts.Add(time.Second)
		}
	}

	return files
}

func filename(ts time.Time, snakeName string) string {
	return ts.Format("2006_01_02_150405") + "_create_" + snakeName + "_table.php"
}

func (e *Emitter) tableCreationBody(t schema.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Schema::create('%s', function (Blueprint $table) {\n", t.Name)

	hasTimestamps := hasBothTimestampColumns(t)
	hasSoftDeletes := hasSoftDeleteColumn(t)

	pk, hasPK := t.PrimaryKeyIndex()
	compositePK := hasPK && pk.IsComposite()

	for _, col := range t.Columns {
		if col.Name == "created_at" || col.Name == "updated_at" || col.Name == "deleted_at" {
			continue
		}
		b.WriteString("    ")
		b.WriteString(e.columnDefinition(col, compositePK))
		b.WriteString(";\n")
	}

	if hasTimestamps {
		b.WriteString("    $table->timestamps();\n")
	}
	if hasSoftDeletes {
		b.WriteString("    $table->softDeletes();\n")
	}

	if compositePK {
		fmt.Fprintf(&b, "    $table->primary([%s]);\n", quoteList(pk.Columns))
	}

	for _, idx := range t.Indexes {
		if idx.Kind == schema.IndexPrimary {
			continue
		}
		b.WriteString("    ")
		b.WriteString(indexDefinition(idx))
		b.WriteString(";\n")
	}

	if !e.SeparateForeignKeys {
		for _, fk := range t.ForeignKeys {
			b.WriteString("    ")
			b.WriteString(foreignKeyAddStatement(fk))
			b.WriteString(";\n")
		}
	}

	b.WriteString("});\n\n")
	fmt.Fprintf(&b, "Schema::dropIfExists('%s');\n", t.Name)

	return b.String()
}

func hasBothTimestampColumns(t schema.Table) bool {
	_, created := t.Column("created_at")
	_, updated := t.Column("updated_at")
	return created && updated
}

func hasSoftDeleteColumn(t schema.Table) bool {
	_, ok := t.Column("deleted_at")
	return ok
}

// columnDefinition renders one column as a fluent builder call, applying
// spec.md §4.4's identity-directive collapsing and modifier-order rules.
func (e *Emitter) columnDefinition(col schema.Column, skipPrimaryModifier bool) string {
	if shorthand, ok := identityShorthand(col); ok {
		return fmt.Sprintf("$table->%s('%s')", shorthand, col.Name)
	}

	emitted := e.TypeMap.Emit(col.Type)
	call := methodCall(col, emitted)

	var mods strings.Builder
	mods.WriteString(call)

	isPrimary := col.Attributes.Primary && !skipPrimaryModifier
	if !col.AutoIncrement {
		if col.Nullable {
			mods.WriteString("->nullable()")
		}
		if col.Default != nil {
			mods.WriteString("->default(" + defaultLiteral(*col.Default) + ")")
		}
	}
	if col.Comment != "" {
		mods.WriteString(fmt.Sprintf("->comment('%s')", escapeSingle(col.Comment)))
	}
	if col.Charset != "" {
		mods.WriteString(fmt.Sprintf("->charset('%s')", col.Charset))
	}
	if col.Collation != "" {
		mods.WriteString(fmt.Sprintf("->collation('%s')", col.Collation))
	}
	if isPrimary {
		mods.WriteString("->primary()")
	}
	if col.Unsigned && !isIdentityUnsignedHandled(col) {
		mods.WriteString("->unsigned()")
	}

	return mods.String()
}

// identityShorthand collapses an auto-increment integer-family column into
// Laravel's single identity directive, matching spec.md §4.4's
// "bigint unsigned + auto_increment → id" rule and its smaller siblings.
func identityShorthand(col schema.Column) (string, bool) {
	if !col.AutoIncrement || !col.Type.IntegerFamily() {
		return "", false
	}
	switch col.Type {
	case schema.TypeBigInteger:
		if col.Name == "id" {
			return "id", true
		}
		return "bigIncrements", true
	case schema.TypeInteger:
		return "increments", true
	case schema.TypeMediumInteger:
		return "mediumIncrements", true
	case schema.TypeSmallInteger:
		return "smallIncrements", true
	case schema.TypeTinyInteger:
		return "tinyIncrements", true
	}
	return "", false
}

// isIdentityUnsignedHandled reports whether col's unsigned-ness is already
// implied by an identity shorthand so the generic ->unsigned() modifier
// isn't also appended (the shorthand methods are always unsigned).
func isIdentityUnsignedHandled(col schema.Column) bool {
	_, ok := identityShorthand(col)
	return ok
}

func methodCall(col schema.Column, emitted typemap.EmittedType) string {
	switch col.Type {
	case schema.TypeDecimal:
		if col.HasPrecision {
			scale := col.Scale
			return fmt.Sprintf("$table->decimal('%s', %d, %d)", col.Name, col.Precision, scale)
		}
		return fmt.Sprintf("$table->decimal('%s')", col.Name)
	case schema.TypeVarchar, schema.TypeChar:
		if col.HasLength {
			return fmt.Sprintf("$table->%s('%s', %d)", emitted.Method, col.Name, col.Length)
		}
		return fmt.Sprintf("$table->%s('%s')", emitted.Method, col.Name)
	case schema.TypeEnum, schema.TypeSet:
		return fmt.Sprintf("$table->%s('%s', [%s])", emitted.Method, col.Name, quoteList(col.Attributes.EnumValues))
	default:
		return fmt.Sprintf("$table->%s('%s')", emitted.Method, col.Name)
	}
}

func defaultLiteral(d schema.Default) string {
	switch d.Kind {
	case schema.DefaultKindExpression:
		return fmt.Sprintf("DB::raw('%s')", escapeSingle(d.Text))
	case schema.DefaultKindNull:
		return "null"
	case schema.DefaultKindBool:
		if d.Bool {
			return "true"
		}
		return "false"
	case schema.DefaultKindInt:
		return strconv.FormatInt(d.Int, 10)
	case schema.DefaultKindFloat:
		return strconv.FormatFloat(d.Float, 'g', -1, 64)
	default:
		return "'" + escapeSingle(d.Text) + "'"
	}
}

func indexDefinition(idx schema.Index) string {
	method := "index"
	switch idx.Kind {
	case schema.IndexUnique:
		method = "unique"
	case schema.IndexFulltext:
		method = "fullText"
	case schema.IndexSpatial:
		method = "spatialIndex"
	}
	if len(idx.Columns) == 1 {
		return fmt.Sprintf("$table->%s('%s')", method, idx.Columns[0])
	}
	return fmt.Sprintf("$table->%s([%s])", method, quoteList(idx.Columns))
}

// foreignKeyAddStatement renders one FK constraint inline within a
// table-creation body. onDelete/onUpdate are emitted only when they deviate
// from the database default (Restrict, NoAction) per spec.md §4.4.
func foreignKeyAddStatement(fk schema.ForeignKey) string {
	var b strings.Builder
	if len(fk.Columns) == 1 {
		fmt.Fprintf(&b, "$table->foreign('%s')", fk.Columns[0])
	} else {
		fmt.Fprintf(&b, "$table->foreign([%s])", quoteList(fk.Columns))
	}
	if len(fk.ReferencedColumns) == 1 {
		fmt.Fprintf(&b, "->references('%s')", fk.ReferencedColumns[0])
	} else {
		fmt.Fprintf(&b, "->references([%s])", quoteList(fk.ReferencedColumns))
	}
	fmt.Fprintf(&b, "->on('%s')", fk.ReferencedTable)
	if fk.OnDelete != "" && fk.OnDelete != defaultOnDelete {
		fmt.Fprintf(&b, "->onDelete('%s')", actionToken(fk.OnDelete))
	}
	if fk.OnUpdate != "" && fk.OnUpdate != defaultOnUpdate {
		fmt.Fprintf(&b, "->onUpdate('%s')", actionToken(fk.OnUpdate))
	}
	return b.String()
}

func actionToken(a schema.FKAction) string {
	switch a {
	case schema.ActionCascade:
		return "cascade"
	case schema.ActionSetNull:
		return "set null"
	case schema.ActionSetDefault:
		return "set default"
	case schema.ActionRestrict:
		return "restrict"
	default:
		return "no action"
	}
}

// foreignKeyBody renders the FK-only file for a table, used when
// SeparateForeignKeys is true: forward adds every FK, reverse drops them by
// local columns.
func (e *Emitter) foreignKeyBody(t schema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema::table('%s', function (Blueprint $table) {\n", t.Name)
	for _, fk := range t.ForeignKeys {
		b.WriteString("    ")
		b.WriteString(foreignKeyAddStatement(fk))
		b.WriteString(";\n")
	}
	b.WriteString("});\n\n")

	fmt.Fprintf(&b, "Schema::table('%s', function (Blueprint $table) {\n", t.Name)
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) == 1 {
			fmt.Fprintf(&b, "    $table->dropForeign(['%s']);\n", fk.Columns[0])
		} else {
			fmt.Fprintf(&b, "    $table->dropForeign([%s]);\n", quoteList(fk.Columns))
		}
	}
	b.WriteString("});\n")

	return b.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + escapeSingle(it) + "'"
	}
	return strings.Join(quoted, ", ")
}

func escapeSingle(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
