package relate

import (
	"testing"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

func col(name string) schema.Column { return schema.Column{Name: name, Type: schema.TypeInteger} }

func fk(name string, columns []string, refTable string, refColumns []string) schema.ForeignKey {
	return schema.ForeignKey{Name: name, Columns: columns, ReferencedTable: refTable, ReferencedColumns: refColumns}
}

func findRel(rels []Relationship, kind Kind, table, method string) (Relationship, bool) {
	for _, r := range rels {
		if r.Kind == kind && r.Table == table && r.Method == method {
			return r, true
		}
	}
	return Relationship{}, false
}

func TestDetectBelongsToAndHasMany(t *testing.T) {
	users := schema.Table{Name: "users", Columns: []schema.Column{col("id")}}
	posts := schema.Table{
		Name:    "posts",
		Columns: []schema.Column{col("id"), col("user_id")},
		ForeignKeys: []schema.ForeignKey{
			fk("fk_posts_user", []string{"user_id"}, "users", []string{"id"}),
		},
	}
	d := NewDetector([]schema.Table{users, posts})
	rels := d.Detect()

	if _, ok := findRel(rels, KindBelongsTo, "posts", "user"); !ok {
		t.Errorf("expected posts.belongsTo(user), got %+v", rels)
	}
	if _, ok := findRel(rels, KindHasMany, "users", "posts"); !ok {
		t.Errorf("expected users.hasMany(posts), got %+v", rels)
	}
}

func TestDetectHasOneFromUniqueIndex(t *testing.T) {
	users := schema.Table{Name: "users", Columns: []schema.Column{col("id")}}
	profiles := schema.Table{
		Name:    "profiles",
		Columns: []schema.Column{col("id"), col("user_id")},
		ForeignKeys: []schema.ForeignKey{
			fk("fk_profiles_user", []string{"user_id"}, "users", []string{"id"}),
		},
		Indexes: []schema.Index{
			{Name: "profiles_user_id_unique", Kind: schema.IndexUnique, Columns: []string{"user_id"}},
		},
	}
	d := NewDetector([]schema.Table{users, profiles})
	rels := d.Detect()

	if _, ok := findRel(rels, KindHasOne, "users", "profile"); !ok {
		t.Errorf("expected users.hasOne(profile), got %+v", rels)
	}
}

func TestDetectBelongsToManyViaPivot(t *testing.T) {
	posts := schema.Table{Name: "posts", Columns: []schema.Column{col("id")}}
	tags := schema.Table{Name: "tags", Columns: []schema.Column{col("id")}}
	pivot := schema.Table{
		Name:    "post_tag",
		Columns: []schema.Column{col("post_id"), col("tag_id")},
		ForeignKeys: []schema.ForeignKey{
			fk("fk_pt_post", []string{"post_id"}, "posts", []string{"id"}),
			fk("fk_pt_tag", []string{"tag_id"}, "tags", []string{"id"}),
		},
	}
	d := NewDetector([]schema.Table{posts, tags, pivot})
	rels := d.Detect()

	if _, ok := findRel(rels, KindBelongsToMany, "posts", "tags"); !ok {
		t.Errorf("expected posts.belongsToMany(tags), got %+v", rels)
	}
	if _, ok := findRel(rels, KindBelongsToMany, "tags", "posts"); !ok {
		t.Errorf("expected tags.belongsToMany(posts), got %+v", rels)
	}
}

func TestDetectSelfReferencingBelongsTo(t *testing.T) {
	categories := schema.Table{
		Name:    "categories",
		Columns: []schema.Column{col("id"), col("parent_id")},
		ForeignKeys: []schema.ForeignKey{
			fk("fk_categories_parent", []string{"parent_id"}, "categories", []string{"id"}),
		},
	}
	d := NewDetector([]schema.Table{categories})
	rels := d.Detect()

	rel, ok := findRel(rels, KindBelongsTo, "categories", "parent")
	if !ok {
		t.Fatalf("expected categories.belongsTo(parent), got %+v", rels)
	}
	if !rel.SelfReferencing {
		t.Error("expected SelfReferencing to be true")
	}
}

func TestDetectPolymorphic(t *testing.T) {
	comments := schema.Table{
		Name: "comments",
		Columns: []schema.Column{
			col("id"), col("commentable_type"), col("commentable_id"),
		},
	}
	d := NewDetector([]schema.Table{comments})
	rels := d.Detect()

	if _, ok := findRel(rels, KindMorphTo, "comments", "commentable"); !ok {
		t.Errorf("expected comments.morphTo(commentable), got %+v", rels)
	}
}
