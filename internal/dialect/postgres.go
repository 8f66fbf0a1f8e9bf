package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// postgresParser implements Parser against PostgreSQL's information_schema
// and pg_catalog, using pgxpool rather than a single pgx.Conn so a CLI
// invocation spanning many tables doesn't serialize every catalog query
// onto one connection.
type postgresParser struct {
	pool       *pgxpool.Pool
	schemaName string
	typeMap    *typemap.Map
	log        *zap.Logger
}

func newPostgresParser(ctx context.Context, connString string, typeMap *typemap.Map, log *zap.Logger) (Parser, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres pool: %w", err)
	}

	cfg := pool.Config().ConnConfig
	schemaName := "public"
	if v, ok := cfg.RuntimeParams["search_path"]; ok && v != "" {
		schemaName = strings.Split(v, ",")[0]
	}

	return &postgresParser{pool: pool, schemaName: schemaName, typeMap: typeMap, log: log}, nil
}

func (p *postgresParser) DriverTag() typemap.Dialect { return typemap.DialectPostgres }
func (p *postgresParser) DatabaseName() string       { return p.schemaName }
func (p *postgresParser) Close() error               { p.pool.Close(); return nil }

func (p *postgresParser) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	excluded := excludeSet(exclude)

	rows, err := p.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p.schemaName)
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

func (p *postgresParser) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	`, p.schemaName, name).Scan(&count)
	return count > 0, err
}

func (p *postgresParser) ParseTable(ctx context.Context, name string) (schema.Table, error) {
	table := schema.Table{Name: name}

	comment, err := p.tableComment(ctx, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("table comment: %w", err)
	}
	table.Comment = comment

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

func (p *postgresParser) tableComment(ctx context.Context, name string) (string, error) {
	var comment *string
	err := p.pool.QueryRow(ctx, `
		SELECT obj_description(($1 || '.' || $2)::regclass, 'pg_class')
	`, p.schemaName, name).Scan(&comment)
	if err != nil {
		return "", nil
	}
	if comment == nil {
		return "", nil
	}
	return *comment, nil
}

// pgNativeType mirrors the teacher's normalizePostgresType: the catalog
// reports verbose SQL-standard names for several common types, and this
// collapses them back to the short tokens typemap's postgres baseline
// table keys on.
func pgNativeType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return "varchar"
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "USER-DEFINED":
		return udtName
	case "ARRAY":
		if strings.HasPrefix(udtName, "_") {
			return udtName[1:] + "[]"
		}
		return "array"
	default:
		return dataType
	}
}

func (p *postgresParser) parseColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			c.column_name, c.data_type, c.udt_name, c.is_nullable, c.column_default,
			c.character_maximum_length, c.numeric_precision, c.numeric_scale,
			c.collation_name, col_description((quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass, c.ordinal_position)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, p.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	var enumTypes []string
	for rows.Next() {
		var (
			name, dataType, udtName, nullable string
			defaultVal                        *string
			maxLen, precision, scale          *int
			collationN, commentN              *string
		)
		if err := rows.Scan(&name, &dataType, &udtName, &nullable, &defaultVal,
			&maxLen, &precision, &scale, &collationN, &commentN); err != nil {
			return nil, err
		}

		native := pgNativeType(dataType, udtName, maxLen)
		col := schema.Column{
			Name:       name,
			NativeType: native,
			Nullable:   nullable == "YES",
		}
		if collationN != nil {
			col.Collation = *collationN
		}
		if commentN != nil {
			col.Comment = *commentN
		}
		if maxLen != nil {
			col.Length, col.HasLength = *maxLen, true
		}
		if precision != nil {
			col.Precision, col.HasPrecision = *precision, true
		}
		if scale != nil {
			col.Scale, col.HasScale = *scale, true
		}

		baseToken := native
		if idx := strings.Index(baseToken, "("); idx != -1 {
			baseToken = baseToken[:idx]
		}
		col.Type = p.typeMap.Canonicalize(baseToken)
		col.AutoIncrement = strings.HasPrefix(dataType, "int") && defaultVal != nil &&
			strings.Contains(*defaultVal, "nextval(")

		if dataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, udtName)
		}

		if defaultVal != nil {
			stripped := typemap.StripCast(*defaultVal)
			col.Default = typemap.ParseDefault(stripped)
			if col.Default != nil && typemap.IsUUIDGenerator(stripped) {
				col.Type = schema.TypeUUID
			}
		}

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		enumValues, err := p.enumValues(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if values, ok := enumValues[columns[i].NativeType]; ok {
				columns[i].Attributes.EnumValues = values
				columns[i].Type = schema.TypeEnum
			}
		}
	}

	return columns, nil
}

func (p *postgresParser) enumValues(ctx context.Context, typeNames []string) (map[string][]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`, p.schemaName, typeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[string][]string{}
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], label)
	}
	return result, rows.Err()
}

func (p *postgresParser) parseIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			i.relname, ix.indisunique, ix.indisprimary,
			am.amname,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum))
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON i.relam = am.oid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r' AND n.nspname = $1 AND t.relname = $2
		GROUP BY i.relname, ix.indisunique, ix.indisprimary, am.amname
		ORDER BY i.relname
	`, p.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var name, amName string
		var isUnique, isPrimary bool
		var columns []string
		if err := rows.Scan(&name, &isUnique, &isPrimary, &amName, &columns); err != nil {
			return nil, err
		}

		kind := schema.IndexPlain
		switch {
		case isPrimary:
			kind = schema.IndexPrimary
		case isUnique:
			kind = schema.IndexUnique
		}

		alg := schema.AlgorithmBTree
		switch amName {
		case "hash":
			alg = schema.AlgorithmHash
		case "gin":
			kind = schema.IndexFulltext
			alg = schema.AlgorithmBTree
		}

		indexes = append(indexes, schema.Index{Name: name, Kind: kind, Columns: columns, Algorithm: alg})
	}
	return indexes, rows.Err()
}

func (p *postgresParser) parseForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name,
			rc.update_rule, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`, p.schemaName, tableName)
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
		var name, column, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &updateRule, &deleteRule); err != nil {
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
