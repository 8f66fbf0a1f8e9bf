package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// mssqlParser implements Parser against SQL Server's information_schema
// plus sys.indexes/sys.foreign_keys for the catalog detail ANSI views don't
// carry (index algorithm, clustered/nonclustered). The connection itself
// follows the same sql.Open("sqlserver", dsn) + Ping pattern used elsewhere
// in the retrieved corpus for this driver.
type mssqlParser struct {
	db      *sql.DB
	schema  string
	typeMap *typemap.Map
	log     *zap.Logger
}

func newMSSQLParser(ctx context.Context, connString string, typeMap *typemap.Map, log *zap.Logger) (Parser, error) {
	dsn := strings.TrimPrefix(connString, "sqlserver://")
	dsn = strings.TrimPrefix(dsn, "mssql://")

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlserver connection: %w", err)
	}

	return &mssqlParser{db: db, schema: "dbo", typeMap: typeMap, log: log}, nil
}

func (p *mssqlParser) DriverTag() typemap.Dialect { return typemap.DialectMSSQL }
func (p *mssqlParser) DatabaseName() string       { return p.schema }
func (p *mssqlParser) Close() error               { return p.db.Close() }

func (p *mssqlParser) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	excluded := excludeSet(exclude)

	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @p1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p.schema)
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

func (p *mssqlParser) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = @p1 AND table_name = @p2
	`, p.schema, name).Scan(&count)
	return count > 0, err
}

func (p *mssqlParser) ParseTable(ctx context.Context, name string) (schema.Table, error) {
	table := schema.Table{Name: name}

	columns, err := p.parseColumns(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse columns: %w", err)
	}
	table.Columns = columns

	pk, err := p.primaryKeyColumns(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse primary key: %w", err)
	}

	indexes, err := p.parseIndexes(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("parse indexes: %w", err)
	}
	if len(pk) > 0 {
		indexes = append([]schema.Index{{Name: "PK_" + name, Kind: schema.IndexPrimary, Columns: pk}}, indexes...)
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

func (p *mssqlParser) parseColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			c.column_name, c.data_type, c.is_nullable, c.column_default,
			c.character_maximum_length, c.numeric_precision, c.numeric_scale,
			c.collation_name, COLUMNPROPERTY(OBJECT_ID(@p1 + '.' + c.table_name), c.column_name, 'IsIdentity')
		FROM information_schema.columns c
		WHERE c.table_schema = @p1 AND c.table_name = @p2
		ORDER BY c.ordinal_position
	`, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			name, dataType, nullable string
			defaultVal, collationN   sql.NullString
			maxLen, precision, scale sql.NullInt64
			isIdentity               sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &nullable, &defaultVal,
			&maxLen, &precision, &scale, &collationN, &isIdentity); err != nil {
			return nil, err
		}

		col := schema.Column{
			Name:          name,
			NativeType:    dataType,
			Nullable:      nullable == "YES",
			AutoIncrement: isIdentity.Valid && isIdentity.Int64 == 1,
			Collation:     collationN.String,
		}

		if maxLen.Valid && maxLen.Int64 > 0 {
			col.Length, col.HasLength = int(maxLen.Int64), true
		}
		if precision.Valid {
			col.Precision, col.HasPrecision = int(precision.Int64), true
		}
		if scale.Valid {
			col.Scale, col.HasScale = int(scale.Int64), true
		}

		col.Type = p.typeMap.Canonicalize(strings.ToLower(dataType))

		if defaultVal.Valid {
			stripped := typemap.StripCast(defaultVal.String)
			col.Default = typemap.ParseDefault(stripped)
			if col.Default != nil && typemap.IsUUIDGenerator(stripped) {
				col.Type = schema.TypeUUID
			}
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (p *mssqlParser) primaryKeyColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = @p1 AND tc.table_name = @p2
		ORDER BY kcu.ordinal_position
	`, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func (p *mssqlParser) parseIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT i.name, i.is_unique, i.type_desc, c.name
		FROM sys.indexes i
		JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		WHERE i.object_id = OBJECT_ID(@p1 + '.' + @p2) AND i.is_primary_key = 0 AND i.name IS NOT NULL
		ORDER BY i.name, ic.key_ordinal
	`, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type accum struct {
		unique  bool
		typeDesc string
		columns []string
	}
	order := []string{}
	byName := map[string]*accum{}

	for rows.Next() {
		var indexName, typeDesc, colName string
		var unique bool
		if err := rows.Scan(&indexName, &unique, &typeDesc, &colName); err != nil {
			return nil, err
		}
		acc, ok := byName[indexName]
		if !ok {
			acc = &accum{unique: unique, typeDesc: typeDesc}
			byName[indexName] = acc
			order = append(order, indexName)
		}
		acc.columns = append(acc.columns, colName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []schema.Index
	for _, name := range order {
		acc := byName[name]
		kind := schema.IndexPlain
		if acc.unique {
			kind = schema.IndexUnique
		}
		alg := schema.AlgorithmBTree
		if strings.Contains(strings.ToUpper(acc.typeDesc), "HASH") {
			alg = schema.AlgorithmHash
		}
		indexes = append(indexes, schema.Index{Name: name, Kind: kind, Columns: acc.columns, Algorithm: alg})
	}
	return indexes, nil
}

func (p *mssqlParser) parseForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			fk.name, c1.name, rt.name, c2.name,
			fk.update_referential_action_desc, fk.delete_referential_action_desc,
			fkc.constraint_column_id
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.columns c1 ON fkc.parent_object_id = c1.object_id AND fkc.parent_column_id = c1.column_id
		JOIN sys.columns c2 ON fkc.referenced_object_id = c2.object_id AND fkc.referenced_column_id = c2.column_id
		JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
		WHERE fk.parent_object_id = OBJECT_ID(@p1 + '.' + @p2)
		ORDER BY fk.name, fkc.constraint_column_id
	`, p.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type fkAccum struct {
		columns, refColumns []string
		refTable            string
		onUpdate, onDelete  string
	}
	order := []string{}
	byName := map[string]*fkAccum{}

	for rows.Next() {
		var name, column, refTable, refColumn, updateDesc, deleteDesc string
		var ordinal int
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &updateDesc, &deleteDesc, &ordinal); err != nil {
			return nil, err
		}
		acc, ok := byName[name]
		if !ok {
			acc = &fkAccum{refTable: refTable, onUpdate: mssqlActionDescToRule(updateDesc), onDelete: mssqlActionDescToRule(deleteDesc)}
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

// mssqlActionDescToRule translates sys.foreign_keys' *_referential_action_desc
// column ("NO_ACTION", "CASCADE", "SET_NULL", "SET_DEFAULT") into the
// space-separated rule text mapFKAction expects, matching the other three
// dialects' information_schema.referential_constraints wording.
func mssqlActionDescToRule(desc string) string {
	return strings.ReplaceAll(desc, "_", " ")
}
