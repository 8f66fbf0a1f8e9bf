package naming

import "testing"

func TestPluralize(t *testing.T) {
	tests := map[string]string{
		"user":     "users",
		"category": "categories",
		"box":      "boxes",
		"church":   "churches",
		"wife":     "wives",
		"leaf":     "leaves",
		"person":   "people",
		"child":    "children",
		"goose":    "geese",
		"datum":    "data",
		"sheep":    "sheep",
		"key":      "keys",
	}
	for in, want := range tests {
		if got := Pluralize(in); got != want {
			t.Errorf("Pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSingularize(t *testing.T) {
	tests := map[string]string{
		"users":      "user",
		"categories": "category",
		"boxes":      "box",
		"churches":   "church",
		"wives":      "wife",
		"leaves":     "leaf",
		"people":     "person",
		"children":   "child",
		"geese":      "goose",
		"data":       "datum",
		"sheep":      "sheep",
		"keys":       "key",
	}
	for in, want := range tests {
		if got := Singularize(in); got != want {
			t.Errorf("Singularize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"BlogPost":  "blog_post",
		"ID":        "id",
		"UserID":    "user_id",
		"already_snake": "already_snake",
	}
	for in, want := range tests {
		if got := ToSnakeCase(in); got != want {
			t.Errorf("ToSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToStudlyCase(t *testing.T) {
	tests := map[string]string{
		"blog_post": "BlogPost",
		"users":     "Users",
		"meta_data": "MetaData",
	}
	for in, want := range tests {
		if got := ToStudlyCase(in); got != want {
			t.Errorf("ToStudlyCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModelTableRoundTrip(t *testing.T) {
	// spec.md §8 invariant 6: tableToModel(modelToTable(M)) = M for M that
	// round-trips.
	models := []string{"User", "BlogPost", "Category"}
	for _, m := range models {
		table := ModelToTable(m)
		back := TableToModel(table)
		if back != m {
			t.Errorf("round trip failed: ModelToTable(%q)=%q, TableToModel=%q", m, table, back)
		}
	}
}

func TestTableToModelKnownNonInverse(t *testing.T) {
	// spec.md §9 explicit open case: meta_data does not round-trip to
	// "MetaData" — it becomes "MetaDatum" because the last segment is
	// singularized independently.
	got := TableToModel("meta_data")
	want := "MetaDatum"
	if got != want {
		t.Errorf("TableToModel(meta_data) = %q, want %q (documented non-inverse)", got, want)
	}
}

func TestRelationMethodName(t *testing.T) {
	tests := map[string]string{
		"user_id":     "user",
		"author_uuid": "author",
		"category_key": "category",
		"parent_id":   "parent",
	}
	for in, want := range tests {
		if got := RelationMethodName(in); got != want {
			t.Errorf("RelationMethodName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasManyHasOne(t *testing.T) {
	if got := HasMany("comments"); got != "comments" {
		t.Errorf("HasMany(comments) = %q, want comments", got)
	}
	if got := HasOne("profiles"); got != "profile" {
		t.Errorf("HasOne(profiles) = %q, want profile", got)
	}
}
