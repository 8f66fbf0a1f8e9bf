package typemap

import (
	"testing"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

func TestParseDefaultKinds(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind schema.DefaultKind
	}{
		{"NULL", schema.DefaultKindNull},
		{"CURRENT_TIMESTAMP", schema.DefaultKindExpression},
		{"now()", schema.DefaultKindExpression},
		{"'hello'", schema.DefaultKindString},
		{"TRUE", schema.DefaultKindBool},
		{"FALSE", schema.DefaultKindBool},
		{"42", schema.DefaultKindInt},
		{"3.14", schema.DefaultKindFloat},
		{"some_weird_token()", schema.DefaultKindExpression},
	}
	for _, tt := range tests {
		got := ParseDefault(tt.raw)
		if got == nil {
			t.Errorf("ParseDefault(%q) = nil", tt.raw)
			continue
		}
		if got.Kind != tt.wantKind {
			t.Errorf("ParseDefault(%q).Kind = %v, want %v", tt.raw, got.Kind, tt.wantKind)
		}
	}
}

func TestParseDefaultEmpty(t *testing.T) {
	if got := ParseDefault(""); got != nil {
		t.Errorf("ParseDefault(\"\") = %+v, want nil", got)
	}
}

func TestParseDefaultStringUnescapesQuotes(t *testing.T) {
	got := ParseDefault("'it''s fine'")
	if got == nil || got.Text != "it's fine" {
		t.Errorf("expected unescaped quote, got %+v", got)
	}
}

func TestParseDefaultIntValue(t *testing.T) {
	got := ParseDefault("7")
	if got == nil || got.Kind != schema.DefaultKindInt || got.Int != 7 {
		t.Errorf("ParseDefault(7) = %+v, want Int=7", got)
	}
}

func TestStripCastPostgres(t *testing.T) {
	if got := StripCast("'active'::character varying"); got != "'active'" {
		t.Errorf("StripCast postgres cast = %q, want 'active'", got)
	}
}

func TestStripCastMSSQLParens(t *testing.T) {
	if got := StripCast("((0))"); got != "0" {
		t.Errorf("StripCast mssql parens = %q, want 0", got)
	}
	if got := StripCast("(getdate())"); got != "getdate()" {
		t.Errorf("StripCast mssql function = %q, want getdate()", got)
	}
}

func TestStripCastBitLiteral(t *testing.T) {
	if got := StripCast("b'1'"); got != "1" {
		t.Errorf("StripCast bit literal = %q, want 1", got)
	}
}

func TestExtractEnumValues(t *testing.T) {
	got := ExtractEnumValues("enum('draft','published','archived')")
	want := []string{"draft", "published", "archived"}
	if len(got) != len(want) {
		t.Fatalf("ExtractEnumValues length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtractEnumValues()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractEnumValuesNonEnum(t *testing.T) {
	if got := ExtractEnumValues("varchar(255)"); got != nil {
		t.Errorf("ExtractEnumValues on non-enum = %v, want nil", got)
	}
}

func TestIsUUIDGenerator(t *testing.T) {
	cases := map[string]bool{
		"uuid()":              true,
		"gen_random_uuid()":   true,
		"newid()":             true,
		"uuid_generate_v4()":  true,
		"CURRENT_TIMESTAMP":   false,
		"42":                  false,
	}
	for raw, want := range cases {
		if got := IsUUIDGenerator(raw); got != want {
			t.Errorf("IsUUIDGenerator(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestLooksLikeUUIDLiteral(t *testing.T) {
	if !LooksLikeUUIDLiteral("'550e8400-e29b-41d4-a716-446655440000'") {
		t.Error("expected valid UUID literal to be recognized")
	}
	if LooksLikeUUIDLiteral("'not-a-uuid'") {
		t.Error("did not expect malformed text to be recognized as a UUID")
	}
}

func TestParsePrecisionScale(t *testing.T) {
	p, hasP, s, hasS := ParsePrecisionScale("decimal(10,2)")
	if !hasP || p != 10 || !hasS || s != 2 {
		t.Errorf("ParsePrecisionScale(decimal(10,2)) = (%d,%v,%d,%v)", p, hasP, s, hasS)
	}

	p2, hasP2, _, hasS2 := ParsePrecisionScale("numeric(8)")
	if !hasP2 || p2 != 8 || hasS2 {
		t.Errorf("ParsePrecisionScale(numeric(8)) = (%d,%v,_,%v)", p2, hasP2, hasS2)
	}
}

func TestParseLength(t *testing.T) {
	n, ok := ParseLength("varchar(255)")
	if !ok || n != 255 {
		t.Errorf("ParseLength(varchar(255)) = (%d,%v), want (255,true)", n, ok)
	}

	if _, ok := ParseLength("text"); ok {
		t.Error("ParseLength(text) should report ok=false")
	}
}

func TestDetectUnsigned(t *testing.T) {
	if !DetectUnsigned("int unsigned") {
		t.Error("expected 'int unsigned' to be detected as unsigned")
	}
	if DetectUnsigned("int") {
		t.Error("did not expect plain 'int' to be detected as unsigned")
	}
}
