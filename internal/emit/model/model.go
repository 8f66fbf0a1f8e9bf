// Package model implements the Class-Stub Emitter: one data-access class
// stub per table, its properties and relationship methods inferred from the
// Schema Model and the Relationship Detector, per spec.md §4.5.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sepehr-mohseni/elosql/internal/naming"
	"github.com/sepehr-mohseni/elosql/internal/relate"
	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// File is one emitted (filename, body) pair.
type File struct {
	Name string
	Body string
}

// Config carries the subset of the `models.*` configuration keys (spec.md
// §6) that shape stub generation.
type Config struct {
	Namespace             string
	BaseClass             string
	GenerateRelationships bool
	GenerateScopes        bool
	UseFillable           bool
	GuardedColumns        []string
}

// Emitter produces class stubs for a table set.
type Emitter struct {
	TypeMap *typemap.Map
	Config  Config
}

// NewEmitter returns an Emitter bound to a dialect's type map and the
// resolved models configuration.
func NewEmitter(tm *typemap.Map, cfg Config) *Emitter {
	if cfg.BaseClass == "" {
		cfg.BaseClass = "Model"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "App\\Models"
	}
	return &Emitter{TypeMap: tm, Config: cfg}
}

// Generate emits the stub for one table, given the relationships the
// Detector inferred for it.
func (e *Emitter) Generate(t schema.Table, rels []relate.Relationship) File {
	className := naming.TableToModel(t.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "namespace %s;\n\n", e.Config.Namespace)
	b.WriteString("use Illuminate\\Database\\Eloquent\\Relations\\BelongsTo;\n")
	b.WriteString("use Illuminate\\Database\\Eloquent\\Relations\\BelongsToMany;\n")
	b.WriteString("use Illuminate\\Database\\Eloquent\\Relations\\HasMany;\n")
	b.WriteString("use Illuminate\\Database\\Eloquent\\Relations\\HasOne;\n")
	b.WriteString("use Illuminate\\Database\\Eloquent\\Relations\\MorphTo;\n\n")

	e.writeDocBlock(&b, t)

	fmt.Fprintf(&b, "class %s extends %s\n{\n", className, e.Config.BaseClass)

	if naming.ModelToTable(className) != t.Name {
		fmt.Fprintf(&b, "    protected $table = '%s';\n\n", t.Name)
	}

	pk, hasPK := singleColumnPrimaryKey(t)
	if hasPK && pk.Name != "id" {
		fmt.Fprintf(&b, "    protected $primaryKey = '%s';\n\n", pk.Name)
	}
	if hasPK && !pk.AutoIncrement {
		b.WriteString("    public $incrementing = false;\n\n")
	}
	if hasPK && (pk.Type == schema.TypeUUID || pk.Type == schema.TypeVarchar || pk.Type == schema.TypeULID) {
		b.WriteString("    protected $keyType = 'string';\n\n")
	}
	if !hasBothTimestampColumns(t) {
		b.WriteString("    public $timestamps = false;\n\n")
	}

	guard := make(map[string]bool, len(e.Config.GuardedColumns))
	for _, g := range e.Config.GuardedColumns {
		guard[g] = true
	}
	if e.Config.UseFillable {
		var fillable []string
		for _, c := range t.Columns {
			if c.AutoIncrement || guard[c.Name] {
				continue
			}
			fillable = append(fillable, c.Name)
		}
		fmt.Fprintf(&b, "    protected $fillable = [%s];\n\n", quoteList(fillable))
	} else if len(e.Config.GuardedColumns) > 0 {
		fmt.Fprintf(&b, "    protected $guarded = [%s];\n\n", quoteList(e.Config.GuardedColumns))
	}

	if casts := e.castsFor(t); len(casts) > 0 {
		b.WriteString("    protected $casts = [\n")
		for _, c := range casts {
			fmt.Fprintf(&b, "        '%s' => '%s',\n", c.column, c.cast)
		}
		b.WriteString("    ];\n\n")
	}

	if e.Config.GenerateRelationships {
		for _, rel := range orderedForStub(rels) {
			b.WriteString(relationshipMethod(rel))
			b.WriteString("\n")
		}
	}

	if e.Config.GenerateScopes {
		for _, c := range t.Columns {
			if c.Type != schema.TypeBoolean {
				continue
			}
			b.WriteString(scopeMethod(c.Name))
			b.WriteString("\n")
		}
	}

	b.WriteString("}\n")

	return File{Name: className + ".php", Body: b.String()}
}

func singleColumnPrimaryKey(t schema.Table) (schema.Column, bool) {
	pk, ok := t.PrimaryKeyIndex()
	if !ok || pk.IsComposite() {
		return schema.Column{}, false
	}
	return t.Column(pk.Columns[0])
}

func hasBothTimestampColumns(t schema.Table) bool {
	_, created := t.Column("created_at")
	_, updated := t.Column("updated_at")
	return created && updated
}

type castEntry struct {
	column string
	cast   string
}

// castsFor derives the $casts map per spec.md §4.5's rules, evaluated in
// priority order: boolean, json, *_at/*_date naming conventions, decimal.
// Columns matching none of these get no cast; the type map carries no cast
// information and is not consulted.
func (e *Emitter) castsFor(t schema.Table) []castEntry {
	var casts []castEntry
	for _, c := range t.Columns {
		switch {
		case c.Type == schema.TypeBoolean:
			casts = append(casts, castEntry{c.Name, "boolean"})
		case c.Type == schema.TypeJSON || c.Type == schema.TypeJSONB:
			casts = append(casts, castEntry{c.Name, "array"})
		case strings.HasSuffix(c.Name, "_at") && c.Type.Temporal():
			casts = append(casts, castEntry{c.Name, "datetime"})
		case strings.HasSuffix(c.Name, "_date") && c.Type == schema.TypeDate:
			casts = append(casts, castEntry{c.Name, "date"})
		case c.Type == schema.TypeDecimal:
			scale := 2
			if c.HasScale {
				scale = c.Scale
			}
			casts = append(casts, castEntry{c.Name, "decimal:" + strconv.Itoa(scale)})
		default:
			continue
		}
	}
	return casts
}

// orderedForStub enforces spec.md §4.5's "polymorphic methods come last"
// rule on top of the Detector's own deterministic ordering.
func orderedForStub(rels []relate.Relationship) []relate.Relationship {
	out := append([]relate.Relationship{}, rels...)
	sort.SliceStable(out, func(i, j int) bool {
		iPoly := out[i].Kind == relate.KindMorphTo || out[i].Kind == relate.KindMorphMany
		jPoly := out[j].Kind == relate.KindMorphTo || out[j].Kind == relate.KindMorphMany
		if iPoly != jPoly {
			return !iPoly
		}
		return false
	})
	return out
}

// scopeMethod emits a local query scope for a boolean column, the
// convention Eloquent generators use for flag-style columns: scopeActive()
// filters `where('active', true)`.
func scopeMethod(column string) string {
	return fmt.Sprintf(
		"    public function scope%s($query)\n    {\n        return $query->where('%s', true);\n    }\n",
		naming.ToStudlyCase(column), column,
	)
}

func relationshipMethod(rel relate.Relationship) string {
	switch rel.Kind {
	case relate.KindBelongsTo:
		target := naming.TableToModel(rel.Target)
		return fmt.Sprintf(
			"    public function %s(): BelongsTo\n    {\n        return $this->belongsTo(%s::class, '%s', '%s');\n    }\n",
			rel.Method, target, rel.ForeignKey, rel.OtherKey,
		)
	case relate.KindHasOne:
		target := naming.TableToModel(rel.Target)
		return fmt.Sprintf(
			"    public function %s(): HasOne\n    {\n        return $this->hasOne(%s::class, '%s', '%s');\n    }\n",
			rel.Method, target, rel.ForeignKey, rel.OtherKey,
		)
	case relate.KindHasMany:
		target := naming.TableToModel(rel.Target)
		return fmt.Sprintf(
			"    public function %s(): HasMany\n    {\n        return $this->hasMany(%s::class, '%s', '%s');\n    }\n",
			rel.Method, target, rel.ForeignKey, rel.OtherKey,
		)
	case relate.KindBelongsToMany:
		target := naming.TableToModel(rel.Target)
		return fmt.Sprintf(
			"    public function %s(): BelongsToMany\n    {\n        return $this->belongsToMany(%s::class, '%s', '%s', '%s');\n    }\n",
			rel.Method, target, rel.Pivot, rel.PivotForeignKey, rel.PivotOtherKey,
		)
	case relate.KindMorphTo:
		return fmt.Sprintf(
			"    public function %s(): MorphTo\n    {\n        return $this->morphTo();\n    }\n",
			rel.Method,
		)
	default:
		return ""
	}
}

// writeDocBlock emits the optional class-level property-annotation block:
// one @property line per column, scalar type derived from the canonical
// type, prefixed with a nullable marker when the column is nullable.
func (e *Emitter) writeDocBlock(b *strings.Builder, t schema.Table) {
	b.WriteString("/**\n")
	for _, c := range t.Columns {
		scalar := e.TypeMap.Emit(c.Type).DocScalar
		if c.Nullable {
			scalar = "?" + scalar
		}
		fmt.Fprintf(b, " * @property %s $%s\n", scalar, c.Name)
	}
	b.WriteString(" */\n")
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return strings.Join(quoted, ", ")
}
