//go:build integration
// +build integration

package dialect

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/sepehr-mohseni/elosql/internal/typemap"
	"go.uber.org/zap"
)

// TestSQLiteParserRoundTrip exercises the real mattn/go-sqlite3 driver end
// to end: create a schema, introspect it through the Factory, and assert
// the recovered schema.Table matches what was declared.
func TestSQLiteParserRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elosql_test.db")

	setup, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = setup.Exec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			created_at DATETIME
		);
		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title VARCHAR(255) NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);
	`)
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	ctx := context.Background()
	factory := NewFactory(zap.NewNop())
	tm := typemap.NewBuilder(typemap.DialectSQLite).Build()

	parser, err := factory.Make(ctx, "sqlite://"+path, tm)
	require.NoError(t, err)
	defer func() { _ = parser.Close() }()

	names, err := parser.ListTables(ctx, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"users", "posts"}, names)

	users, err := parser.ParseTable(ctx, "users")
	require.NoError(t, err)
	_, hasEmail := users.Column("email")
	require.True(t, hasEmail)

	posts, err := parser.ParseTable(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, posts.ForeignKeys, 1)
	require.Equal(t, "users", posts.ForeignKeys[0].ReferencedTable)

	exists, err := parser.TableExists(ctx, "nonexistent")
	require.NoError(t, err)
	require.False(t, exists)
}
