// Package relate infers ORM-style relationships from a resolved foreign-key
// graph and naming conventions, per spec.md §4.3's rule table.
package relate

import (
	"sort"

	"github.com/sepehr-mohseni/elosql/internal/depgraph"
	"github.com/sepehr-mohseni/elosql/internal/naming"
	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// Kind enumerates the relationship shapes the detector recognizes.
type Kind string

const (
	KindBelongsTo     Kind = "belongsTo"
	KindHasOne        Kind = "hasOne"
	KindHasMany       Kind = "hasMany"
	KindBelongsToMany Kind = "belongsToMany"
	KindMorphTo       Kind = "morphTo"
	KindMorphMany     Kind = "morphMany"
)

// Relationship describes one inferred relation from Table's perspective.
type Relationship struct {
	Kind            Kind
	Method          string // generated method name, e.g. "author", "comments"
	Table           string // owning table this relationship is attached to
	Target          string // table on the other end
	ForeignKey      string // local FK column (belongsTo/hasOne/hasMany) or empty
	OtherKey        string // referenced column on the target, usually "id"
	Pivot           string // pivot table name, belongsToMany only
	PivotForeignKey string // this side's FK column in the pivot
	PivotOtherKey   string // target side's FK column in the pivot
	MorphName       string // polymorphic relation prefix, e.g. "commentable"
	SelfReferencing bool
}

// Detector infers relationships across a resolved table set.
type Detector struct {
	tables []schema.Table
	byName map[string]schema.Table
}

// NewDetector builds a Detector over the given table set. Tables must come
// from a single introspection pass so FK targets can be cross-referenced.
func NewDetector(tables []schema.Table) *Detector {
	byName := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}
	return &Detector{tables: tables, byName: byName}
}

// Detect returns every relationship the table set exhibits, in a
// deterministic order: owns-one (belongsTo) relations first, then
// referred-to (hasOne/hasMany) relations, then many-to-many pivots, then
// polymorphic relations — each group following the input order of tables
// and, within a table, the input order of its foreign keys.
func (d *Detector) Detect() []Relationship {
	var rels []Relationship

	rels = append(rels, d.detectBelongsTo()...)
	rels = append(rels, d.detectHasOneAndHasMany()...)
	rels = append(rels, d.detectBelongsToMany()...)
	rels = append(rels, d.detectPolymorphic()...)

	return rels
}

// detectBelongsTo emits one relation per FK of every non-pivot table: the
// owning side (the table that carries the FK column) belongs to the
// referenced table. Self-referencing FKs are included, flagged
// SelfReferencing.
func (d *Detector) detectBelongsTo() []Relationship {
	inSet := inSetNames(d.tables)
	var rels []Relationship
	for _, t := range d.tables {
		if depgraph.IsPivot(t, inSet) {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if !inSet[fk.ReferencedTable] {
				continue
			}
			method := naming.RelationMethodName(fk.Columns[0])
			rels = append(rels, Relationship{
				Kind:            KindBelongsTo,
				Method:          method,
				Table:           t.Name,
				Target:          fk.ReferencedTable,
				ForeignKey:      fk.Columns[0],
				OtherKey:        firstOr(fk.ReferencedColumns, "id"),
				SelfReferencing: fk.ReferencedTable == t.Name,
			})
		}
	}
	return rels
}

// detectHasOneAndHasMany emits the inverse of each belongsTo FK: hasOne if
// the FK column carries a single-column unique index on the child table
// (each parent has at most one child), hasMany otherwise.
func (d *Detector) detectHasOneAndHasMany() []Relationship {
	inSet := inSetNames(d.tables)
	var rels []Relationship
	for _, t := range d.tables {
		if depgraph.IsPivot(t, inSet) {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if !inSet[fk.ReferencedTable] || fk.ReferencedTable == t.Name {
				continue // self-references and out-of-set targets don't get an inverse
			}
			if hasUniqueSingleColumnIndex(t, fk.Columns[0]) {
				rels = append(rels, Relationship{
					Kind:       KindHasOne,
					Method:     naming.HasOne(t.Name),
					Table:      fk.ReferencedTable,
					Target:     t.Name,
					ForeignKey: fk.Columns[0],
					OtherKey:   firstOr(fk.ReferencedColumns, "id"),
				})
			} else {
				rels = append(rels, Relationship{
					Kind:       KindHasMany,
					Method:     naming.HasMany(t.Name),
					Table:      fk.ReferencedTable,
					Target:     t.Name,
					ForeignKey: fk.Columns[0],
					OtherKey:   firstOr(fk.ReferencedColumns, "id"),
				})
			}
		}
	}
	return rels
}

// detectBelongsToMany emits a symmetric pair of belongsToMany relations for
// every pivot table joining exactly two other tables in the set.
func (d *Detector) detectBelongsToMany() []Relationship {
	inSet := inSetNames(d.tables)
	var rels []Relationship
	for _, t := range d.tables {
		if !depgraph.IsPivot(t, inSet) {
			continue
		}
		targets := depgraph.PivotTargets(t)
		if len(targets) != 2 {
			continue
		}
		a, b := targets[0], targets[1]
		fkA := pivotForeignKeyFor(t, a)
		fkB := pivotForeignKeyFor(t, b)
		if fkA == "" || fkB == "" {
			continue
		}
		rels = append(rels,
			Relationship{
				Kind: KindBelongsToMany, Method: naming.BelongsToMany(b), Table: a, Target: b,
				Pivot: t.Name, PivotForeignKey: fkA, PivotOtherKey: fkB,
			},
			Relationship{
				Kind: KindBelongsToMany, Method: naming.BelongsToMany(a), Table: b, Target: a,
				Pivot: t.Name, PivotForeignKey: fkB, PivotOtherKey: fkA,
			},
		)
	}
	return rels
}

// detectPolymorphic scans every table for an "X_type"/"X_id" column pair and
// emits a morphTo relation on the owning side. The inverse morphMany side is
// not emitted automatically since the morphable parent set can't be derived
// from catalog metadata alone; spec.md §9 leaves that to configuration.
func (d *Detector) detectPolymorphic() []Relationship {
	var rels []Relationship
	for _, t := range d.tables {
		for _, prefix := range polymorphicPrefixes(t) {
			rels = append(rels, Relationship{
				Kind:      KindMorphTo,
				Method:    naming.ToCamelCase(prefix),
				Table:     t.Name,
				MorphName: prefix,
			})
		}
	}
	return rels
}

// polymorphicPrefixes returns every column-name prefix for which both
// "<prefix>_type" and "<prefix>_id" columns exist on t.
func polymorphicPrefixes(t schema.Table) []string {
	hasSuffix := map[string]bool{}
	for _, c := range t.Columns {
		hasSuffix[c.Name] = true
	}
	var prefixes []string
	seen := map[string]bool{}
	for _, c := range t.Columns {
		const typeSuffix = "_type"
		if len(c.Name) <= len(typeSuffix) || c.Name[len(c.Name)-len(typeSuffix):] != typeSuffix {
			continue
		}
		prefix := c.Name[:len(c.Name)-len(typeSuffix)]
		if hasSuffix[prefix+"_id"] && !seen[prefix] {
			seen[prefix] = true
			prefixes = append(prefixes, prefix)
		}
	}
	sort.Strings(prefixes)
	return prefixes
}

func hasUniqueSingleColumnIndex(t schema.Table, column string) bool {
	for _, idx := range t.Indexes {
		if idx.Kind != schema.IndexUnique && idx.Kind != schema.IndexPrimary {
			continue
		}
		if len(idx.Columns) == 1 && idx.Columns[0] == column {
			return true
		}
	}
	return false
}

func pivotForeignKeyFor(t schema.Table, target string) string {
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == target {
			return fk.Columns[0]
		}
	}
	return ""
}

func inSetNames(tables []schema.Table) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t.Name] = true
	}
	return set
}

func firstOr(list []string, fallback string) string {
	if len(list) == 0 {
		return fallback
	}
	return list[0]
}
