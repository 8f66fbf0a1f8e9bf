package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// sqliteParser implements Parser against SQLite's PRAGMA introspection
// calls, the same approach the teacher's SQLiteExtractor used, generalized
// to the richer schema model and the type-affinity rule spec.md §4.1
// requires (SQLite declares column types as free-form text; affinity is a
// substring match, not an exact lookup).
type sqliteParser struct {
	db      *sql.DB
	path    string
	typeMap *typemap.Map
	log     *zap.Logger
}

func newSQLiteParser(ctx context.Context, connString string, typeMap *typemap.Map, log *zap.Logger) (Parser, error) {
	path := strings.TrimPrefix(connString, "sqlite://")
	path = strings.TrimPrefix(path, "sqlite3://")
	path = strings.TrimPrefix(path, "file://")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &sqliteParser{db: db, path: path, typeMap: typeMap, log: log}, nil
}

func (p *sqliteParser) DriverTag() typemap.Dialect { return typemap.DialectSQLite }
func (p *sqliteParser) DatabaseName() string       { return p.path }
func (p *sqliteParser) Close() error               { return p.db.Close() }

func (p *sqliteParser) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	excluded := excludeSet(exclude)

	rows, err := p.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if !excluded[name] {
			names = append(names, name)
		}
	}
	return names, rows.Err()
}

func (p *sqliteParser) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?
	`, name).Scan(&count)
	return count > 0, err
}

func (p *sqliteParser) ParseTable(ctx context.Context, name string) (schema.Table, error) {
	table := schema.Table{Name: name}

	columns, pkColumns, err := p.parseColumns(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse columns: %w", err)
	}
	table.Columns = columns

	indexes, err := p.parseIndexes(ctx, name, pkColumns)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse indexes: %w", err)
	}
	if len(pkColumns) > 0 {
		indexes = append([]schema.Index{{Name: "primary", Kind: schema.IndexPrimary, Columns: pkColumns}}, indexes...)
	}
	table.Indexes = indexes

	fks, err := p.parseForeignKeys(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	if err := table.Validate(); err != nil {
		p.log.Warn("table failed invariant validation", zap.String("table", name), zap.Error(err))
	}

	return table, nil
}

// sqliteAffinity implements the five-rule type-affinity algorithm SQLite's
// own documentation specifies: the declared type string is matched against
// substrings in order, and the first match wins. This is the one place in
// the whole module where a "contains" check on raw catalog text is correct
// rather than a shortcut.
func sqliteAffinity(declared string) schema.Type {
	upper := strings.ToUpper(declared)
	switch {
	case strings.Contains(upper, "INT"):
		return schema.TypeInteger
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return schema.TypeText
	case strings.Contains(upper, "BLOB"), upper == "":
		return schema.TypeBlob
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return schema.TypeDouble
	default:
		return schema.TypeDecimal
	}
}

func (p *sqliteParser) parseColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	var pkOrdinals []struct {
		name  string
		order int
	}

	for rows.Next() {
		var cid int
		var name, declaredType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := schema.Column{
			Name:       name,
			NativeType: declaredType,
			Nullable:   notNull == 0,
		}

		if length, ok := typemap.ParseLength(declaredType); ok {
			col.Length, col.HasLength = length, true
		}
		if precision, hasP, scale, hasS := typemap.ParsePrecisionScale(declaredType); hasP {
			col.Precision, col.HasPrecision = precision, true
			if hasS {
				col.Scale, col.HasScale = scale, true
			}
		}

		baseToken := strings.ToLower(declaredType)
		if idx := strings.Index(baseToken, "("); idx != -1 {
			baseToken = baseToken[:idx]
		}
		baseToken = strings.TrimSpace(baseToken)
		if canonical := p.typeMap.Canonicalize(baseToken); canonical != schema.TypeText || baseToken == "text" {
			col.Type = canonical
		} else {
			col.Type = sqliteAffinity(declaredType)
		}

		if defaultValue.Valid {
			stripped := typemap.StripCast(defaultValue.String)
			col.Default = typemap.ParseDefault(stripped)
			if col.Default != nil && typemap.IsUUIDGenerator(stripped) {
				col.Type = schema.TypeUUID
			}
		}

		if pk > 0 {
			pkOrdinals = append(pkOrdinals, struct {
				name  string
				order int
			}{name, pk})
			if pk == 1 && len(pkOrdinals) == 1 && strings.EqualFold(baseToken, "integer") {
				col.AutoIncrement = true
			}
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var pkColumns []string
	for _, o := range pkOrdinals {
		pkColumns = append(pkColumns, o.name)
	}

	return columns, pkColumns, nil
}

func (p *sqliteParser) parseIndexes(ctx context.Context, tableName string, pkColumns []string) ([]schema.Index, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type listRow struct {
		name   string
		unique bool
	}
	var listRows []listRow
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}
		listRows = append(listRows, listRow{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, lr := range listRows {
		cols, err := p.indexColumns(ctx, lr.name)
		if err != nil {
			return nil, err
		}
		kind := schema.IndexPlain
		if lr.unique {
			kind = schema.IndexUnique
		}
		indexes = append(indexes, schema.Index{Name: lr.name, Kind: kind, Columns: cols, Algorithm: schema.AlgorithmBTree})
	}
	return indexes, nil
}

func (p *sqliteParser) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (p *sqliteParser) parseForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type fkAccum struct {
		columns, refColumns []string
		refTable            string
		onUpdate, onDelete  string
	}
	order := []int{}
	byID := map[int]*fkAccum{}

	for rows.Next() {
		var id, seq int
		var refTable, fromCol, toCol, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		acc, ok := byID[id]
		if !ok {
			acc = &fkAccum{refTable: refTable, onUpdate: onUpdate, onDelete: onDelete}
			byID[id] = acc
			order = append(order, id)
		}
		acc.columns = append(acc.columns, fromCol)
		acc.refColumns = append(acc.refColumns, toCol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []schema.ForeignKey
	for _, id := range order {
		acc := byID[id]
		fks = append(fks, schema.ForeignKey{
			Name:              fmt.Sprintf("fk_%s_%d", tableName, id),
			Columns:           acc.columns,
			ReferencedTable:   acc.refTable,
			ReferencedColumns: acc.refColumns,
			OnDelete:          mapFKAction(acc.onDelete),
			OnUpdate:          mapFKAction(acc.onUpdate),
		})
	}
	return fks, nil
}

// quoteIdent wraps a SQLite identifier in double quotes for use inside a
// PRAGMA statement, the one place this module builds SQL by string
// concatenation rather than parameter binding because PRAGMA doesn't accept
// bound parameters for its target name.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
