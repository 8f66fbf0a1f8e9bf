package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// mysqlParser implements Parser against MySQL and MariaDB's
// information_schema, grounded on the same catalog queries regardless of
// which of the two engines is connected.
type mysqlParser struct {
	db      *sql.DB
	dbName  string
	typeMap *typemap.Map
	log     *zap.Logger
}

func newMySQLParser(ctx context.Context, connString string, typeMap *typemap.Map, log *zap.Logger) (Parser, error) {
	dsn := strings.TrimPrefix(connString, "mysql://")
	dsn = strings.TrimPrefix(dsn, "mariadb://")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql connection: %w", err)
	}

	var dbName string
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve current database: %w", err)
	}

	return &mysqlParser{db: db, dbName: dbName, typeMap: typeMap, log: log}, nil
}

func (p *mysqlParser) DriverTag() typemap.Dialect { return typemap.DialectMySQL }
func (p *mysqlParser) DatabaseName() string       { return p.dbName }
func (p *mysqlParser) Close() error               { return p.db.Close() }

func (p *mysqlParser) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	excluded := excludeSet(exclude)

	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p.dbName)
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

func (p *mysqlParser) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?
	`, p.dbName, name).Scan(&count)
	return count > 0, err
}

func (p *mysqlParser) ParseTable(ctx context.Context, name string) (schema.Table, error) {
	table := schema.Table{Name: name}

	engine, charset, collation, comment, err := p.tableMeta(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("table metadata: %w", err)
	}
	table.Engine, table.Charset, table.Collation, table.Comment = engine, charset, collation, comment

	columns, err := p.parseColumns(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse columns: %w", err)
	}
	table.Columns = columns

	indexes, err := p.parseIndexes(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse indexes: %w", err)
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

func (p *mysqlParser) tableMeta(ctx context.Context, name string) (engine, charset, collation, comment string, err error) {
	var engineN, collationN, commentN sql.NullString
	row := p.db.QueryRowContext(ctx, `
		SELECT t.engine, t.table_collation, t.table_comment
		FROM information_schema.tables t
		WHERE t.table_schema = ? AND t.table_name = ?
	`, p.dbName, name)
	if err = row.Scan(&engineN, &collationN, &commentN); err != nil {
		return "", "", "", "", err
	}
	collation = collationN.String
	if idx := strings.Index(collation, "_"); idx != -1 {
		charset = collation[:idx]
	}
	return engineN.String, charset, collation, commentN.String, nil
}

func (p *mysqlParser) parseColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			column_name, column_type, data_type, is_nullable, column_default,
			extra, character_maximum_length, numeric_precision, numeric_scale,
			character_set_name, collation_name, column_comment
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, p.dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			name, columnType, dataType, nullable, extra string
			defaultVal, charsetN, collationN, commentN  sql.NullString
			maxLen, precision, scale                     sql.NullInt64
		)
		if err := rows.Scan(&name, &columnType, &dataType, &nullable, &defaultVal,
			&extra, &maxLen, &precision, &scale, &charsetN, &collationN, &commentN); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:          name,
			NativeType:    columnType,
			Nullable:      nullable == "YES",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
			Unsigned:      typemap.DetectUnsigned(columnType),
			Charset:       charsetN.String,
			Collation:     collationN.String,
			Comment:       commentN.String,
		}

		if maxLen.Valid {
			col.Length, col.HasLength = int(maxLen.Int64), true
		}
		if precision.Valid {
			col.Precision, col.HasPrecision = int(precision.Int64), true
		}
		if scale.Valid {
			col.Scale, col.HasScale = int(scale.Int64), true
		}

		col.Type = p.typeMap.Canonicalize(dataType)
		if values := typemap.ExtractEnumValues(columnType); values != nil {
			col.Attributes.EnumValues = values
		}

		if defaultVal.Valid {
			stripped := typemap.StripCast(defaultVal.String)
			col.Default = typemap.ParseDefault(stripped)
			if col.Default != nil && typemap.IsUUIDGenerator(stripped) {
				col.Type = schema.TypeUUID
			}
		}

		if dataType == "tinyint" && columnType == "tinyint(1)" {
			col.Type = schema.TypeBoolean
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (p *mysqlParser) parseIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT index_name, non_unique, column_name, index_type
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index
	`, p.dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type indexAccum struct {
		unique    bool
		columns   []string
		algorithm string
	}
	order := []string{}
	byName := map[string]*indexAccum{}

	for rows.Next() {
		var indexName, columnName, indexType string
		var nonUnique int
		if err := rows.Scan(&indexName, &nonUnique, &columnName, &indexType); err != nil {
			return nil, err
		}
		acc, ok := byName[indexName]
		if !ok {
			acc = &indexAccum{unique: nonUnique == 0, algorithm: strings.ToLower(indexType)}
			byName[indexName] = acc
			order = append(order, indexName)
		}
		acc.columns = append(acc.columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, name := range order {
		acc := byName[name]
		kind := schema.IndexPlain
		switch {
		case name == "PRIMARY":
			kind = schema.IndexPrimary
		case acc.unique:
			kind = schema.IndexUnique
		}

		alg := schema.AlgorithmBTree
		if acc.algorithm == "fulltext" {
			kind = schema.IndexFulltext
			alg = schema.AlgorithmBTree
		} else if acc.algorithm == "hash" {
			alg = schema.AlgorithmHash
		}

		indexes = append(indexes, schema.Index{
			Name:      name,
			Kind:      kind,
			Columns:   acc.columns,
			Algorithm: alg,
		})
	}
	return indexes, nil
}

func (p *mysqlParser) parseForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			rc.constraint_name, kcu.column_name, kcu.referenced_table_name,
			kcu.referenced_column_name, rc.update_rule, rc.delete_rule, kcu.ordinal_position
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
			ON rc.constraint_name = kcu.constraint_name
			AND rc.constraint_schema = kcu.table_schema
			AND rc.table_name = kcu.table_name
		WHERE rc.constraint_schema = ? AND rc.table_name = ?
		ORDER BY rc.constraint_name, kcu.ordinal_position
	`, p.dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type fkAccum struct {
		columns, refColumns   []string
		refTable              string
		onUpdate, onDelete    string
	}
	order := []string{}
	byName := map[string]*fkAccum{}

	for rows.Next() {
		var name, column, refTable, refColumn, updateRule, deleteRule string
		var ordinal int
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &updateRule, &deleteRule, &ordinal); err != nil {
			return nil, err
		}
		acc, ok := byName[name]
		if !ok {
			acc = &fkAccum{refTable: refTable, onUpdate: updateRule, onDelete: deleteRule}
			byName[name] = acc
			order = append(order, name)
		}
		acc.columns = append(acc.columns, column)
		acc.refColumns = append(acc.refColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var fks []schema.ForeignKey
	for _, name := range order {
		acc := byName[name]
		fks = append(fks, schema.ForeignKey{
			Name:              name,
			Columns:           acc.columns,
			ReferencedTable:   acc.refTable,
			ReferencedColumns: acc.refColumns,
			OnDelete:          mapFKAction(acc.onDelete),
			OnUpdate:          mapFKAction(acc.onUpdate),
		})
	}
	return fks, nil
}

// mapFKAction normalizes the referential_constraints rule strings
// (CASCADE, SET NULL, SET DEFAULT, RESTRICT, NO ACTION) shared across all
// four dialects' catalogs into the canonical schema.FKAction vocabulary.
func mapFKAction(rule string) schema.FKAction {
	switch strings.ToUpper(strings.TrimSpace(rule)) {
	case "CASCADE":
		return schema.ActionCascade
	case "SET NULL":
		return schema.ActionSetNull
	case "SET DEFAULT":
		return schema.ActionSetDefault
	case "RESTRICT":
		return schema.ActionRestrict
	default:
		return schema.ActionNoAction
	}
}
