package typemap

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// expressionPrefixes are the bare, upper-cased catalog expressions spec.md
// §4.1 says must be preserved verbatim and flagged as expressions rather
// than parsed as literals.
var expressionPrefixes = []string{
	"CURRENT_TIMESTAMP", "NOW(", "UUID(", "NEXTVAL(", "GEN_RANDOM_UUID(",
	"UUID_GENERATE_V4(", "GETDATE(", "NEWID(", "CURRENT_DATE", "CURRENT_TIME",
}

// ParseDefault normalizes a default value's raw catalog text into a typed
// schema.Default, per spec.md §4.1. Dialect-specific casts appended by the
// catalog (PostgreSQL's "::text", SQL Server's surrounding parentheses,
// SQLite/MySQL's leading b'...' bit-literal prefix) must already be
// stripped by the caller via StripCast before this runs.
func ParseDefault(raw string) *schema.Default {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	upper := strings.ToUpper(text)
	if upper == "NULL" {
		return &schema.Default{Kind: schema.DefaultKindNull, Text: text}
	}

	for _, prefix := range expressionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return &schema.Default{Kind: schema.DefaultKindExpression, Text: text}
		}
	}

	if unquoted, ok := unquoteString(text); ok {
		return &schema.Default{Kind: schema.DefaultKindString, Text: unquoted}
	}

	switch upper {
	case "TRUE":
		return &schema.Default{Kind: schema.DefaultKindBool, Text: text, Bool: true}
	case "FALSE":
		return &schema.Default{Kind: schema.DefaultKindBool, Text: text, Bool: false}
	}

	if strings.Contains(text, ".") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return &schema.Default{Kind: schema.DefaultKindFloat, Text: text, Float: f}
		}
	} else if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &schema.Default{Kind: schema.DefaultKindInt, Text: text, Int: i}
	}

	// Anything else (an unrecognized bare token, a vendor-specific literal
	// form) is preserved verbatim as an expression rather than guessed at —
	// spec.md §7's "unknown catalog values degrade to a safe default"
	// policy applied to default-value parsing.
	return &schema.Default{Kind: schema.DefaultKindExpression, Text: text}
}

func unquoteString(text string) (string, bool) {
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		inner := text[1 : len(text)-1]
		return strings.ReplaceAll(inner, "''", "'"), true
	}
	return "", false
}

// StripCast removes dialect-specific type-cast decoration the catalog
// appends to a default-value expression before it reaches ParseDefault:
// PostgreSQL's "::text", SQL Server's wrapping parentheses, and MySQL/
// SQLite's leading b'...' bit-literal marker.
func StripCast(raw string) string {
	text := strings.TrimSpace(raw)

	// PostgreSQL: 'foo'::text, 0::integer
	if idx := strings.Index(text, "::"); idx != -1 {
		text = text[:idx]
	}

	// SQL Server: ((0)), (N'foo'), (getdate())
	for strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		inner := text[1 : len(text)-1]
		if strings.Count(inner, "(") != strings.Count(inner, ")") {
			break
		}
		text = inner
	}
	if strings.HasPrefix(text, "N'") {
		text = text[1:]
	}

	// MySQL/SQLite bit literal: b'1'
	if strings.HasPrefix(strings.ToLower(text), "b'") && strings.HasSuffix(text, "'") {
		text = text[2 : len(text)-1]
	}

	return strings.TrimSpace(text)
}

// ExtractEnumValues parses a MySQL-style "enum('a','b','c')" or
// "set('a','b')" native type string into its value list, per spec.md
// §4.1. Returns nil if the string isn't an enum/set declaration.
func ExtractEnumValues(nativeType string) []string {
	lower := strings.ToLower(nativeType)
	if !strings.HasPrefix(lower, "enum(") && !strings.HasPrefix(lower, "set(") {
		return nil
	}

	start := strings.Index(nativeType, "(")
	end := strings.LastIndex(nativeType, ")")
	if start == -1 || end == -1 || start >= end {
		return nil
	}

	var values []string
	for _, part := range strings.Split(nativeType[start+1:end], ",") {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '\'' && part[len(part)-1] == '\'' {
			part = part[1 : len(part)-1]
		}
		values = append(values, part)
	}
	return values
}

// IsUUIDGenerator reports whether a raw default expression is one of the
// dialects' UUID-generation functions, used when classifying a column as
// canonical TypeUUID even though its native type is a generic string/binary
// column (e.g. MySQL CHAR(36) with a UUID() default).
func IsUUIDGenerator(rawDefault string) bool {
	upper := strings.ToUpper(strings.TrimSpace(rawDefault))
	switch {
	case strings.HasPrefix(upper, "UUID("):
	case strings.HasPrefix(upper, "GEN_RANDOM_UUID("):
	case strings.HasPrefix(upper, "UUID_GENERATE_V4("):
	case strings.HasPrefix(upper, "NEWID("):
	default:
		return false
	}
	return true
}

// LooksLikeUUIDLiteral reports whether a default's literal text parses as a
// well-formed UUID. No dialect parser calls it; the parsers classify UUID
// columns only through IsUUIDGenerator.
func LooksLikeUUIDLiteral(text string) bool {
	_, err := uuid.Parse(strings.Trim(text, "'\""))
	return err == nil
}

// ParsePrecisionScale extracts precision and, optionally, scale from a
// native type declaration like "decimal(10,2)" or "numeric(8)".
func ParsePrecisionScale(nativeType string) (precision int, hasPrecision bool, scale int, hasScale bool) {
	start := strings.Index(nativeType, "(")
	end := strings.LastIndex(nativeType, ")")
	if start == -1 || end == -1 || start >= end {
		return 0, false, 0, false
	}
	inner := nativeType[start+1 : end]
	parts := strings.Split(inner, ",")
	if len(parts) >= 1 {
		if p, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			precision, hasPrecision = p, true
		}
	}
	if len(parts) >= 2 {
		if s, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			scale, hasScale = s, true
		}
	}
	return
}

// ParseLength extracts a single length argument from a native type
// declaration like "varchar(255)".
func ParseLength(nativeType string) (length int, ok bool) {
	start := strings.Index(nativeType, "(")
	end := strings.LastIndex(nativeType, ")")
	if start == -1 || end == -1 || start >= end {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(nativeType[start+1 : end]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// DetectUnsigned reports whether a native MySQL/MariaDB type token carries
// the "unsigned" modifier. Other dialects never report true, per spec.md
// §4.1.
func DetectUnsigned(nativeType string) bool {
	return strings.Contains(strings.ToLower(nativeType), "unsigned")
}
