package typemap

import (
	"testing"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

func TestCanonicalizeBaselines(t *testing.T) {
	tests := []struct {
		dialect Dialect
		native  string
		want    schema.Type
	}{
		{DialectMySQL, "bigint", schema.TypeBigInteger},
		{DialectMySQL, "varchar", schema.TypeVarchar},
		{DialectPostgres, "int2", schema.TypeSmallInteger},
		{DialectPostgres, "int8", schema.TypeBigInteger},
		{DialectPostgres, "bpchar", schema.TypeChar},
		{DialectPostgres, "timestamptz", schema.TypeTimestampTZ},
		{DialectSQLite, "integer", schema.TypeInteger},
		{DialectMSSQL, "uniqueidentifier", schema.TypeUUID},
		{DialectMSSQL, "datetimeoffset", schema.TypeTimestampTZ},
	}
	for _, tt := range tests {
		m := NewBuilder(tt.dialect).Build()
		if got := m.Canonicalize(tt.native); got != tt.want {
			t.Errorf("%s.Canonicalize(%q) = %q, want %q", tt.dialect, tt.native, got, tt.want)
		}
	}
}

func TestCanonicalizeUnknownFallsBackToText(t *testing.T) {
	m := NewBuilder(DialectPostgres).Build()
	if got := m.Canonicalize("some_vendor_extension_type"); got != schema.TypeText {
		t.Errorf("unknown token should fall back to TypeText, got %q", got)
	}
}

func TestEmitKnownAndFallback(t *testing.T) {
	m := NewBuilder(DialectMySQL).Build()

	e := m.Emit(schema.TypeBigInteger)
	if e.Method != "bigInteger" || e.DocScalar != "int" {
		t.Errorf("Emit(bigInteger) = %+v, want method bigInteger/docScalar int", e)
	}

	// schema.Type has no registered EmittedType override here; should fall
	// back to the type name itself plus a scalar inferred by docScalarFor.
	unregistered := schema.Type("custom_future_type")
	fallback := m.Emit(unregistered)
	if fallback.Method != "custom_future_type" {
		t.Errorf("Emit fallback method = %q, want the bare type name", fallback.Method)
	}
	if fallback.DocScalar != "string" {
		t.Errorf("Emit fallback docScalar = %q, want string default", fallback.DocScalar)
	}
}

func TestOverrideAndOverrideEmit(t *testing.T) {
	b := NewBuilder(DialectPostgres)
	b.Override("my_custom_domain", schema.TypeUUID)
	b.OverrideEmit(schema.TypeUUID, EmittedType{Method: "customUuid", DocScalar: "string"})
	m := b.Build()

	if got := m.Canonicalize("my_custom_domain"); got != schema.TypeUUID {
		t.Errorf("expected override to take effect, got %q", got)
	}
	if e := m.Emit(schema.TypeUUID); e.Method != "customUuid" {
		t.Errorf("expected emit override to take effect, got %q", e.Method)
	}

	// the baseline postgres "uuid" token should still map to schema.TypeUUID
	// and thus also pick up the overridden emitted type.
	if got := m.Canonicalize("uuid"); got != schema.TypeUUID {
		t.Errorf("baseline uuid mapping should be unaffected by override, got %q", got)
	}
}

func TestBuildFreezesIndependentCopies(t *testing.T) {
	b := NewBuilder(DialectSQLite)
	m1 := b.Build()

	// mutating the builder after Build must not retroactively change m1,
	// per spec.md §5's "written only during construction" rule.
	b.Override("integer", schema.TypeBigInteger)
	m2 := b.Build()

	if got := m1.Canonicalize("integer"); got != schema.TypeInteger {
		t.Errorf("m1 should be frozen at build time, got %q", got)
	}
	if got := m2.Canonicalize("integer"); got != schema.TypeBigInteger {
		t.Errorf("m2 should reflect the later override, got %q", got)
	}
}

func TestDialectString(t *testing.T) {
	if DialectMySQL.String() != "mysql" {
		t.Errorf("Dialect.String() = %q, want mysql", DialectMySQL.String())
	}
}

func TestMapDialect(t *testing.T) {
	m := NewBuilder(DialectMSSQL).Build()
	if m.Dialect() != DialectMSSQL {
		t.Errorf("Map.Dialect() = %q, want %q", m.Dialect(), DialectMSSQL)
	}
}
