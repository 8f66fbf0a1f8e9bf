//go:build integration
// +build integration

package dialect

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

// TestPostgresParserRoundTrip spins up a real PostgreSQL container via
// testcontainers-go's dedicated postgres module, creates a small schema
// with a unique index and a foreign key, and asserts the Factory-built
// Parser recovers it correctly.
func TestPostgresParserRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("elosql"),
		postgres.WithUsername("elosql"),
		postgres.WithPassword("elosql"),
	)
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	setup, err := sql.Open("pgx", connString)
	require.NoError(t, err)
	_, err = setup.ExecContext(ctx, `
		CREATE TABLE authors (
			id BIGSERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			CONSTRAINT authors_email_unique UNIQUE (email)
		);
		CREATE TABLE books (
			id BIGSERIAL PRIMARY KEY,
			author_id BIGINT NOT NULL REFERENCES authors(id),
			title TEXT NOT NULL
		);
	`)
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	factory := NewFactory(zap.NewNop())
	tm := typemap.NewBuilder(typemap.DialectPostgres).Build()

	parser, err := factory.Make(ctx, connString, tm)
	require.NoError(t, err)
	defer func() { _ = parser.Close() }()

	names, err := parser.ListTables(ctx, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"authors", "books"}, names)

	authors, err := parser.ParseTable(ctx, "authors")
	require.NoError(t, err)
	hasUnique := false
	for _, idx := range authors.Indexes {
		if idx.Kind == schema.IndexUnique && len(idx.Columns) == 1 && idx.Columns[0] == "email" {
			hasUnique = true
		}
	}
	require.True(t, hasUnique, "expected a unique index on authors.email")

	books, err := parser.ParseTable(ctx, "books")
	require.NoError(t, err)
	require.Len(t, books.ForeignKeys, 1)
	require.Equal(t, "authors", books.ForeignKeys[0].ReferencedTable)
}
