package schema

import "testing"

func TestColumnValidate(t *testing.T) {
	tests := []struct {
		name    string
		col     Column
		wantErr bool
	}{
		{
			name: "scale exceeds precision",
			col:  Column{Name: "amount", Type: TypeDecimal, HasPrecision: true, Precision: 4, HasScale: true, Scale: 6},
			wantErr: true,
		},
		{
			name: "auto increment on non integer",
			col:  Column{Name: "id", Type: TypeVarchar, AutoIncrement: true},
			wantErr: true,
		},
		{
			name: "enum without values",
			col:  Column{Name: "status", Type: TypeEnum},
			wantErr: true,
		},
		{
			name: "valid integer identity",
			col:  Column{Name: "id", Type: TypeBigInteger, AutoIncrement: true},
			wantErr: false,
		},
		{
			name: "valid enum",
			col:  Column{Name: "status", Type: TypeEnum, Attributes: Attributes{EnumValues: []string{"draft", "published"}}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.col.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTableValidate(t *testing.T) {
	base := Table{
		Name: "posts",
		Columns: []Column{
			{Name: "id", Type: TypeBigInteger, AutoIncrement: true},
			{Name: "user_id", Type: TypeBigInteger},
		},
	}

	t.Run("duplicate index name", func(t *testing.T) {
		tbl := base
		tbl.Indexes = []Index{
			{Name: "idx_user", Kind: IndexPlain, Columns: []string{"user_id"}},
			{Name: "idx_user", Kind: IndexPlain, Columns: []string{"user_id"}},
		}
		if err := tbl.Validate(); err == nil {
			t.Error("expected error for duplicate index name")
		}
	})

	t.Run("index references missing column", func(t *testing.T) {
		tbl := base
		tbl.Indexes = []Index{{Name: "idx_ghost", Kind: IndexPlain, Columns: []string{"ghost"}}}
		if err := tbl.Validate(); err == nil {
			t.Error("expected error for missing column")
		}
	})

	t.Run("two primary indexes", func(t *testing.T) {
		tbl := base
		tbl.Indexes = []Index{
			{Name: "pk1", Kind: IndexPrimary, Columns: []string{"id"}},
			{Name: "pk2", Kind: IndexPrimary, Columns: []string{"user_id"}},
		}
		if err := tbl.Validate(); err == nil {
			t.Error("expected error for two primary indexes")
		}
	})

	t.Run("foreign key references missing local column", func(t *testing.T) {
		tbl := base
		tbl.ForeignKeys = []ForeignKey{
			{Name: "fk_ghost", Columns: []string{"ghost"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
		}
		if err := tbl.Validate(); err == nil {
			t.Error("expected error for FK on missing column")
		}
	})

	t.Run("valid table", func(t *testing.T) {
		tbl := base
		tbl.Indexes = []Index{{Name: "primary", Kind: IndexPrimary, Columns: []string{"id"}}}
		tbl.ForeignKeys = []ForeignKey{
			{Name: "fk_user", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
		}
		if err := tbl.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestTableColumnLookup(t *testing.T) {
	tbl := Table{Columns: []Column{{Name: "id"}, {Name: "name"}}}

	if _, ok := tbl.Column("name"); !ok {
		t.Error("expected to find column 'name'")
	}
	if _, ok := tbl.Column("missing"); ok {
		t.Error("did not expect to find column 'missing'")
	}
}

func TestForeignKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		fk      ForeignKey
		wantErr bool
	}{
		{"no columns", ForeignKey{Name: "fk"}, true},
		{"mismatched counts", ForeignKey{Name: "fk", Columns: []string{"a", "b"}, ReferencedColumns: []string{"x"}}, true},
		{"valid", ForeignKey{Name: "fk", Columns: []string{"a"}, ReferencedColumns: []string{"x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fk.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTypeFamilies(t *testing.T) {
	if !TypeBigInteger.IntegerFamily() {
		t.Error("expected bigInteger to be in the integer family")
	}
	if TypeVarchar.IntegerFamily() {
		t.Error("did not expect varchar to be in the integer family")
	}
	if !TypeTimestampTZ.Temporal() {
		t.Error("expected timestamp-tz to be temporal")
	}
	if !TypeVarchar.Textual() {
		t.Error("expected varchar to be textual")
	}
}
