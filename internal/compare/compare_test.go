package compare

import (
	"context"
	"testing"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

func TestCompareSelfIsEmpty(t *testing.T) {
	a := []schema.Table{
		{
			Name:    "users",
			Columns: []schema.Column{{Name: "id", Type: schema.TypeBigInteger, AutoIncrement: true}, {Name: "email", Type: schema.TypeVarchar}},
			Indexes: []schema.Index{{Name: "users_email_unique", Kind: schema.IndexUnique, Columns: []string{"email"}}},
		},
		{Name: "posts", Columns: []schema.Column{{Name: "id", Type: schema.TypeBigInteger, AutoIncrement: true}}},
	}
	diff := NewComparator().Compare(a, a)
	if len(diff.Created) != 0 || len(diff.Dropped) != 0 || len(diff.Modified) != 0 {
		t.Errorf("expected compare(A, A) to be empty, got %+v", diff)
	}
}

func TestCompareCreatedDroppedAreSymmetric(t *testing.T) {
	a := []schema.Table{{Name: "users"}, {Name: "posts"}}
	b := []schema.Table{{Name: "users"}, {Name: "comments"}}

	forward := NewComparator().Compare(a, b)
	backward := NewComparator().Compare(b, a)

	if !sameNameSet(forward.Created, backward.Dropped) {
		t.Errorf("expected compare(A,B).created to equal compare(B,A).dropped by name set, got %v vs %v", forward.Created, backward.Dropped)
	}
	if !sameNameSet(forward.Dropped, backward.Created) {
		t.Errorf("expected compare(A,B).dropped to equal compare(B,A).created by name set, got %v vs %v", forward.Dropped, backward.Created)
	}
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, n := range a {
		set[n] = true
	}
	for _, n := range b {
		if !set[n] {
			return false
		}
	}
	return true
}

func TestCompareDetectsCreatedAndDropped(t *testing.T) {
	current := []schema.Table{{Name: "users"}}
	target := []schema.Table{{Name: "users"}, {Name: "posts"}}

	diff := NewComparator().Compare(current, target)
	if len(diff.Created) != 1 || diff.Created[0] != "posts" {
		t.Errorf("expected posts created, got %v", diff.Created)
	}
	if len(diff.Dropped) != 0 {
		t.Errorf("expected nothing dropped, got %v", diff.Dropped)
	}
}

func TestCompareDetectsColumnModification(t *testing.T) {
	current := []schema.Table{{
		Name:    "users",
		Columns: []schema.Column{{Name: "age", Type: schema.TypeInteger, Nullable: true}},
	}}
	target := []schema.Table{{
		Name:    "users",
		Columns: []schema.Column{{Name: "age", Type: schema.TypeInteger, Nullable: false}},
	}}

	diff := NewComparator().Compare(current, target)
	if len(diff.Modified) != 1 {
		t.Fatalf("expected one modified table, got %d", len(diff.Modified))
	}
	if len(diff.Modified[0].ColumnsModified) != 1 || diff.Modified[0].ColumnsModified[0] != "age" {
		t.Errorf("expected age to be modified, got %+v", diff.Modified[0])
	}
}

func TestCompareIgnoresCosmeticFields(t *testing.T) {
	current := []schema.Table{{
		Name:    "users",
		Columns: []schema.Column{{Name: "name", Type: schema.TypeVarchar, Comment: "old comment"}},
	}}
	target := []schema.Table{{
		Name:    "users",
		Columns: []schema.Column{{Name: "name", Type: schema.TypeVarchar, Comment: "new comment"}},
	}}

	diff := NewComparator().Compare(current, target)
	if !diff.InSync() {
		t.Errorf("expected comment-only difference to be ignored, got %+v", diff)
	}
}

func TestCompareDetectsIndexAndFKChanges(t *testing.T) {
	current := []schema.Table{{
		Name:    "posts",
		Columns: []schema.Column{{Name: "id"}, {Name: "user_id"}},
	}}
	target := []schema.Table{{
		Name:    "posts",
		Columns: []schema.Column{{Name: "id"}, {Name: "user_id"}},
		Indexes: []schema.Index{{Name: "posts_user_id_index", Kind: schema.IndexPlain, Columns: []string{"user_id"}}},
		ForeignKeys: []schema.ForeignKey{
			{Name: "fk_posts_user", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
		},
	}}

	diff := NewComparator().Compare(current, target)
	if len(diff.Modified) != 1 {
		t.Fatalf("expected one modified table, got %d", len(diff.Modified))
	}
	td := diff.Modified[0]
	if len(td.IndexesAdded) != 1 {
		t.Errorf("expected one index added, got %v", td.IndexesAdded)
	}
	if len(td.ForeignKeysAdded) != 1 {
		t.Errorf("expected one FK added, got %v", td.ForeignKeysAdded)
	}
}

type fakeScanner struct {
	declared map[string][]string
}

func (f fakeScanner) DeclaredColumns(_ context.Context, table string) ([]string, error) {
	return f.declared[table], nil
}

func TestCompareWithMigrationsPresenceOnly(t *testing.T) {
	tables := []schema.Table{{
		Name:    "users",
		Columns: []schema.Column{{Name: "id"}, {Name: "remember_token"}},
	}}
	scanner := fakeScanner{declared: map[string][]string{
		"users": {"id", "email"},
	}}

	diffs, err := NewComparator().CompareWithMigrations(context.Background(), tables, scanner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if IsInSync(diffs) {
		t.Fatal("expected drift to be detected")
	}
	if len(diffs) != 1 {
		t.Fatalf("expected one table diff, got %d", len(diffs))
	}
	if len(diffs[0].ColumnsAdded) != 1 || diffs[0].ColumnsAdded[0] != "remember_token" {
		t.Errorf("expected remember_token flagged as added, got %v", diffs[0].ColumnsAdded)
	}
	if len(diffs[0].ColumnsMissing) != 1 || diffs[0].ColumnsMissing[0] != "email" {
		t.Errorf("expected email flagged as missing, got %v", diffs[0].ColumnsMissing)
	}
}
