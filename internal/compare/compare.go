// Package compare implements schema drift detection: a direct mode that
// diffs two fully introspected schemas, and a migration-aware mode that
// checks a live schema against what a project's migration files declare,
// per spec.md §4.6.
package compare

import (
	"context"
	"reflect"
	"sort"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// TableDiff describes the changes detected for one table that exists in
// both the current and target schemas.
type TableDiff struct {
	Table           string
	ColumnsAdded    []string
	ColumnsDropped  []string
	ColumnsModified []string
	IndexesAdded    []string
	IndexesDropped  []string
	ForeignKeysAdded   []string
	ForeignKeysDropped []string
}

func (d TableDiff) isEmpty() bool {
	return len(d.ColumnsAdded) == 0 && len(d.ColumnsDropped) == 0 && len(d.ColumnsModified) == 0 &&
		len(d.IndexesAdded) == 0 && len(d.IndexesDropped) == 0 &&
		len(d.ForeignKeysAdded) == 0 && len(d.ForeignKeysDropped) == 0
}

// Diff is the result of a direct-mode comparison between two schema
// snapshots.
type Diff struct {
	Created  []string // table names present only in target
	Dropped  []string // table names present only in current
	Modified []TableDiff
}

// InSync reports whether the diff represents no drift at all.
func (d Diff) InSync() bool {
	return len(d.Created) == 0 && len(d.Dropped) == 0 && len(d.Modified) == 0
}

// Comparator runs schema comparisons. It carries no state of its own; both
// modes are pure functions of their inputs.
type Comparator struct{}

// NewComparator returns a ready-to-use Comparator.
func NewComparator() *Comparator { return &Comparator{} }

// Compare diffs two fully introspected table sets directly: a table is
// "created" if it exists only in target, "dropped" if it exists only in
// current, and "modified" if it exists in both but its columns, indexes, or
// foreign keys differ.
func (c *Comparator) Compare(current, target []schema.Table) Diff {
	curByName := byName(current)
	tgtByName := byName(target)

	var diff Diff
	for name := range tgtByName {
		if _, ok := curByName[name]; !ok {
			diff.Created = append(diff.Created, name)
		}
	}
	for name := range curByName {
		if _, ok := tgtByName[name]; !ok {
			diff.Dropped = append(diff.Dropped, name)
		}
	}
	sort.Strings(diff.Created)
	sort.Strings(diff.Dropped)

	var names []string
	for name := range curByName {
		if _, ok := tgtByName[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		td := compareTable(curByName[name], tgtByName[name])
		if !td.isEmpty() {
			diff.Modified = append(diff.Modified, td)
		}
	}

	return diff
}

// compareTable sub-diffs one table present in both snapshots. A column
// counts as "modified" iff any of {type, nullable, default, length,
// precision, scale} differ; name-only column addition/removal is reported
// separately.
func compareTable(current, target schema.Table) TableDiff {
	td := TableDiff{Table: current.Name}

	curCols := columnsByName(current)
	tgtCols := columnsByName(target)

	var colNames []string
	seen := map[string]bool{}
	for _, c := range current.Columns {
		if !seen[c.Name] {
			seen[c.Name] = true
			colNames = append(colNames, c.Name)
		}
	}
	for _, c := range target.Columns {
		if !seen[c.Name] {
			seen[c.Name] = true
			colNames = append(colNames, c.Name)
		}
	}
	sort.Strings(colNames)

	for _, name := range colNames {
		cur, curOK := curCols[name]
		tgt, tgtOK := tgtCols[name]
		switch {
		case curOK && !tgtOK:
			td.ColumnsDropped = append(td.ColumnsDropped, name)
		case !curOK && tgtOK:
			td.ColumnsAdded = append(td.ColumnsAdded, name)
		case columnChanged(cur, tgt):
			td.ColumnsModified = append(td.ColumnsModified, name)
		}
	}

	curIdx := indexSignatures(current)
	tgtIdx := indexSignatures(target)
	for sig, name := range tgtIdx {
		if _, ok := curIdx[sig]; !ok {
			td.IndexesAdded = append(td.IndexesAdded, name)
		}
	}
	for sig, name := range curIdx {
		if _, ok := tgtIdx[sig]; !ok {
			td.IndexesDropped = append(td.IndexesDropped, name)
		}
	}
	sort.Strings(td.IndexesAdded)
	sort.Strings(td.IndexesDropped)

	curFK := fkSignatures(current)
	tgtFK := fkSignatures(target)
	for sig, name := range tgtFK {
		if _, ok := curFK[sig]; !ok {
			td.ForeignKeysAdded = append(td.ForeignKeysAdded, name)
		}
	}
	for sig, name := range curFK {
		if _, ok := tgtFK[sig]; !ok {
			td.ForeignKeysDropped = append(td.ForeignKeysDropped, name)
		}
	}
	sort.Strings(td.ForeignKeysAdded)
	sort.Strings(td.ForeignKeysDropped)

	return td
}

// columnChanged compares exactly the fields spec.md §4.6 names as
// significant for drift: type, nullable, default, length, precision, scale.
// Comment, charset, and collation are deliberately excluded — cosmetic
// catalog metadata, not schema drift.
func columnChanged(cur, tgt schema.Column) bool {
	if cur.Type != tgt.Type || cur.Nullable != tgt.Nullable {
		return true
	}
	if cur.HasLength != tgt.HasLength || (cur.HasLength && cur.Length != tgt.Length) {
		return true
	}
	if cur.HasPrecision != tgt.HasPrecision || (cur.HasPrecision && cur.Precision != tgt.Precision) {
		return true
	}
	if cur.HasScale != tgt.HasScale || (cur.HasScale && cur.Scale != tgt.Scale) {
		return true
	}
	return !reflect.DeepEqual(cur.Default, tgt.Default)
}

func byName(tables []schema.Table) map[string]schema.Table {
	m := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return m
}

func columnsByName(t schema.Table) map[string]schema.Column {
	m := make(map[string]schema.Column, len(t.Columns))
	for _, c := range t.Columns {
		m[c.Name] = c
	}
	return m
}

func indexSignatures(t schema.Table) map[string]string {
	m := make(map[string]string, len(t.Indexes))
	for _, idx := range t.Indexes {
		sig := string(idx.Kind) + "|"
		for _, c := range idx.Columns {
			sig += c + ","
		}
		m[sig] = idx.Name
	}
	return m
}

func fkSignatures(t schema.Table) map[string]string {
	m := make(map[string]string, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		sig := fk.ReferencedTable + "|"
		for _, c := range fk.Columns {
			sig += c + ","
		}
		m[sig] = fk.Name
	}
	return m
}

// MigrationScanner is the narrow collaborator migration-aware comparison
// depends on: a lexical scan over a project's migration files, not a full
// SQL/DDL parser. A column implied by a helper directive the scanner does
// not know (rather than named literally) is invisible to it.
type MigrationScanner interface {
	// DeclaredColumns returns the column names a migration scan believes
	// the given table declares, in no particular order.
	DeclaredColumns(ctx context.Context, table string) ([]string, error)
}

// TableMigrationDiff is the coarser result migration-aware comparison
// produces: presence-only, since a lexical scan cannot reliably recover a
// column's type, nullability, or default.
type TableMigrationDiff struct {
	Table          string
	ColumnsAdded   []string // present live, not found in any migration
	ColumnsMissing []string // declared in migrations, not present live
}

// CompareWithMigrations checks each live table's columns against what the
// scanner believes migrations declare for it. Unlike Compare, this mode
// never reports type/nullable/default drift — only column presence.
func (c *Comparator) CompareWithMigrations(ctx context.Context, tables []schema.Table, scanner MigrationScanner) ([]TableMigrationDiff, error) {
	var diffs []TableMigrationDiff
	for _, t := range tables {
		declared, err := scanner.DeclaredColumns(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		declaredSet := make(map[string]bool, len(declared))
		for _, name := range declared {
			declaredSet[name] = true
		}
		liveSet := make(map[string]bool, len(t.Columns))
		for _, col := range t.Columns {
			liveSet[col.Name] = true
		}

		var td TableMigrationDiff
		td.Table = t.Name
		for _, col := range t.Columns {
			if !declaredSet[col.Name] {
				td.ColumnsAdded = append(td.ColumnsAdded, col.Name)
			}
		}
		for _, name := range declared {
			if !liveSet[name] {
				td.ColumnsMissing = append(td.ColumnsMissing, name)
			}
		}
		sort.Strings(td.ColumnsAdded)
		sort.Strings(td.ColumnsMissing)

		if len(td.ColumnsAdded) > 0 || len(td.ColumnsMissing) > 0 {
			diffs = append(diffs, td)
		}
	}
	return diffs, nil
}

// IsInSync reports whether a migration-aware comparison found no drift.
func IsInSync(diffs []TableMigrationDiff) bool {
	return len(diffs) == 0
}
