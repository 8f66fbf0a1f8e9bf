// Package dialect defines the Parser contract every supported SQL engine
// implements and the Factory that selects one from a connection string's
// driver tag, per spec.md §4.1 and §6.
package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
	"go.uber.org/zap"
)

// Parser is implemented once per supported SQL dialect. Every method that
// queries the catalog takes a context so long catalog scans (a schema with hundreds of tables) can be
// cancelled from the CLI layer.
type Parser interface {
	// ListTables returns every base table name in the target schema/
	// database, excluding any name present in exclude, sorted
	// lexicographically for deterministic output.
	ListTables(ctx context.Context, exclude []string) ([]string, error)

	// ParseTable builds the full immutable schema.Table for a single table,
	// including columns, indexes, and foreign keys.
	ParseTable(ctx context.Context, name string) (schema.Table, error)

	// TableExists reports whether a table is present in the target schema.
	TableExists(ctx context.Context, name string) (bool, error)

	// DatabaseName returns the catalog/schema name the parser is bound to.
	DatabaseName() string

	// DriverTag identifies which dialect this Parser implements, one of
	// the typemap.Dialect constants.
	DriverTag() typemap.Dialect

	// Close releases the underlying connection.
	Close() error
}

// UnsupportedDriverError is returned by Factory.Make when a connection
// string's scheme doesn't match any registered dialect.
type UnsupportedDriverError struct {
	Scheme string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported driver %q: must be one of mysql, postgres/pgsql, sqlite, sqlserver/mssql", e.Scheme)
}

// ConnectionMissingError is returned when a Parser operation is invoked
// before a connection was attached, per spec.md §7's taxonomy.
type ConnectionMissingError struct {
	Operation string
}

func (e *ConnectionMissingError) Error() string {
	return fmt.Sprintf("%s: no connection attached", e.Operation)
}

// TableNotFoundError is returned when a requested table name is absent from
// the live catalog.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

// QueryFailedError wraps a catalog query failure with the SQL text and
// driver message, per spec.md §7. Parsers never retry; this is surfaced
// directly to the caller.
type QueryFailedError struct {
	SQL string
	Err error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query failed: %v\nSQL: %s", e.Err, e.SQL)
}

func (e *QueryFailedError) Unwrap() error { return e.Err }

// Factory builds a Parser for a connection string, dispatching on its
// scheme prefix the way spec.md §6 describes the `--connection` flag
// working: "mysql://", "postgres://" or "pgsql://", "sqlite://" (or a bare
// filesystem path), "sqlserver://" or "mssql://".
type Factory struct {
	Logger *zap.Logger
}

// NewFactory constructs a Factory. A nil logger defaults to zap.NewNop(),
// matching the rest of this module's "logger is an injected parameter, not
// a package global" convention.
func NewFactory(logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{Logger: logger}
}

// Make opens a connection and returns the Parser for the dialect implied by
// connString's scheme.
func (f *Factory) Make(ctx context.Context, connString string, typeMap *typemap.Map) (Parser, error) {
	scheme := schemeOf(connString)

	switch scheme {
	case "mysql", "mariadb":
		return newMySQLParser(ctx, connString, typeMap, f.Logger)
	case "postgres", "postgresql", "pgsql":
		return newPostgresParser(ctx, connString, typeMap, f.Logger)
	case "sqlite", "sqlite3", "file", "":
		return newSQLiteParser(ctx, connString, typeMap, f.Logger)
	case "sqlserver", "mssql":
		return newMSSQLParser(ctx, connString, typeMap, f.Logger)
	default:
		return nil, &UnsupportedDriverError{Scheme: scheme}
	}
}

func schemeOf(connString string) string {
	idx := strings.Index(connString, "://")
	if idx == -1 {
		if strings.HasSuffix(connString, ".db") || strings.HasSuffix(connString, ".sqlite") ||
			strings.HasSuffix(connString, ".sqlite3") {
			return "sqlite"
		}
		return ""
	}
	return strings.ToLower(connString[:idx])
}

// excludeSet turns a slice of table names into a lookup set, used by every
// dialect's ListTables to apply the `exclude` filter uniformly.
func excludeSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
