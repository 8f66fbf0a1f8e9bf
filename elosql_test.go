package elosql

import (
	"testing"
	"time"

	"github.com/sepehr-mohseni/elosql/internal/depgraph"
	"github.com/sepehr-mohseni/elosql/internal/schema"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

var fixedStart = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testTypeMap() *typemap.Map {
	return typemap.NewBuilder(typemap.DialectMySQL).Build()
}

func tbl(name string, refs ...string) schema.Table {
	t := schema.Table{Name: name, Columns: []schema.Column{{Name: "id", Type: schema.TypeBigInteger, AutoIncrement: true}}}
	for _, r := range refs {
		t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{
			Name: r + "_fk", Columns: []string{r + "_id"}, ReferencedTable: r, ReferencedColumns: []string{"id"},
		})
	}
	return t
}

func TestOrderForEmissionNoCycle(t *testing.T) {
	tables := []schema.Table{tbl("posts", "users"), tbl("users")}
	ordered, hadCycle, _ := OrderForEmission(tables)
	if hadCycle {
		t.Fatal("unexpected cycle reported")
	}
	if ordered[0].Name != "users" || ordered[1].Name != "posts" {
		t.Errorf("expected users before posts, got %v", names(ordered))
	}
}

func TestOrderForEmissionBreaksCycle(t *testing.T) {
	tables := []schema.Table{tbl("a", "b"), tbl("b", "a")}
	ordered, hadCycle, cycle := OrderForEmission(tables)
	if !hadCycle {
		t.Fatal("expected a cycle to be reported")
	}
	if len(cycle) == 0 {
		t.Error("expected a non-empty cycle path")
	}
	if len(ordered) != 2 {
		t.Fatalf("expected both tables still returned, got %d", len(ordered))
	}
	for _, tb := range ordered {
		if len(tb.ForeignKeys) != 1 {
			t.Errorf("expected original foreign keys preserved on %q, got %d", tb.Name, len(tb.ForeignKeys))
		}
	}
}

func TestGenerateMigrationsForcesSeparateFKOnCycle(t *testing.T) {
	tables := []schema.Table{tbl("a", "b"), tbl("b", "a")}
	files, err := GenerateMigrations(tables, testTypeMap(), false, fixedStart)
	if err == nil {
		t.Fatal("expected the circular dependency to be surfaced")
	}
	if _, ok := err.(*depgraph.CircularDependencyError); !ok {
		t.Fatalf("expected *depgraph.CircularDependencyError, got %T", err)
	}
	foundFKFile := false
	for _, f := range files {
		if contains(f.Name, "add_foreign_keys_to_") {
			foundFKFile = true
		}
	}
	if !foundFKFile {
		t.Error("expected trailing FK-only files once the cycle forced separate foreign keys")
	}
}

func TestFilterExcluded(t *testing.T) {
	got := filterExcluded([]string{"users", "posts", "migrations"}, []string{"migrations"})
	if len(got) != 2 || got[0] != "users" || got[1] != "posts" {
		t.Errorf("unexpected filtered list: %v", got)
	}
}

func names(tables []schema.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
