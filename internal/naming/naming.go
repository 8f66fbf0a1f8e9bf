// Package naming implements the deterministic identifier transforms spec.md
// §2 and §4.5 rely on: snake↔studly case conversion, English pluralization
// with the irregulars spec.md §9 calls out by name, and the FK-column→
// relation-name derivation used by the relationship detector and both
// emitters.
//
// spec.md §9 is explicit that this must be a fixture-driven rule table
// rather than a general inflection library, so the irregular and
// uncountable word lists below are the actual contract, not an
// implementation detail — tests pin every entry spec.md names.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// irregularPlurals maps singular -> plural for the words spec.md §9 names
// explicitly (person/people, child/children, goose/geese, data/datum) plus
// a handful more common in schema names.
var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"goose":  "geese",
	"man":    "men",
	"woman":  "women",
	"tooth":  "teeth",
	"foot":   "feet",
	"mouse":  "mice",
	"datum":  "data",
}

var irregularSingulars = map[string]string{}

func init() {
	for singular, plural := range irregularPlurals {
		irregularSingulars[plural] = singular
	}
	// "data" inverts to "datum" per the irregular table above, but the
	// source tool's inflector singularizes it to "Datum" which studly-cases
	// to "MetaDatum" for a table like meta_data — an intentional known
	// non-inverse, see spec.md §9 / DESIGN.md.
}

// uncountable words that are identical in singular and plural form.
var uncountable = map[string]bool{
	"equipment": true, "information": true, "series": true, "species": true,
	"fish": true, "sheep": true, "deer": true,
}

// Pluralize returns the English plural of a lower-case singular noun.
func Pluralize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	if plural, ok := irregularPlurals[lower]; ok {
		return plural
	}
	if uncountable[lower] {
		return word
	}
	switch {
	case strings.HasSuffix(lower, "y") && !endsInVowelY(lower):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"), strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return word + "es"
	case strings.HasSuffix(lower, "fe"):
		return word[:len(word)-2] + "ves"
	case strings.HasSuffix(lower, "f") && !strings.HasSuffix(lower, "ff"):
		return word[:len(word)-1] + "ves"
	default:
		return word + "s"
	}
}

// Singularize returns the English singular of a lower-case plural noun.
func Singularize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	if singular, ok := irregularSingulars[lower]; ok {
		return singular
	}
	if uncountable[lower] {
		return word
	}
	switch {
	case strings.HasSuffix(lower, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(lower, "ves"):
		// heuristic: "ves" -> "fe" for "wives"-style, "f" otherwise
		stem := word[:len(word)-3]
		if strings.HasSuffix(stem, "l") || strings.HasSuffix(stem, "r") || strings.HasSuffix(stem, "i") {
			return stem + "fe"
		}
		return stem + "f"
	case strings.HasSuffix(lower, "ses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "zes"), strings.HasSuffix(lower, "ches"),
		strings.HasSuffix(lower, "shes"):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss"):
		return word[:len(word)-1]
	default:
		return word
	}
}

func endsInVowelY(lower string) bool {
	if len(lower) < 2 {
		return false
	}
	switch lower[len(lower)-2] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// ToSnakeCase converts StudlyCase/camelCase into snake_case.
func ToSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if !unicode.IsUpper(prev) || nextIsLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToStudlyCase converts snake_case into StudlyCase.
func ToStudlyCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// ToCamelCase converts snake_case (or a FK column name) into camelCase.
func ToCamelCase(s string) string {
	studly := ToStudlyCase(s)
	if studly == "" {
		return studly
	}
	r := []rune(studly)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// ModelToTable converts a studly-singular model/class name (e.g. "BlogPost")
// into its conventional snake-plural table name ("blog_posts"), the inverse
// direction checked by spec.md §8 invariant 6.
func ModelToTable(model string) string {
	return Pluralize(ToSnakeCase(model))
}

// TableToModel converts a snake-plural table name into its conventional
// studly-singular model name. Known non-inverse per spec.md §9: a table
// named "meta_data" round-trips to "MetaDatum", not "MetaData" — this is
// documented, intentional behavior, not a bug.
func TableToModel(table string) string {
	parts := strings.Split(table, "_")
	if len(parts) == 0 {
		return ToStudlyCase(Singularize(table))
	}
	last := len(parts) - 1
	parts[last] = Singularize(parts[last])
	return ToStudlyCase(strings.Join(parts, "_"))
}

// relationSuffixes are the FK-column suffixes stripped before deriving an
// owns-one method name, per spec.md §4.3's rule table.
var relationSuffixes = []string{"_id", "_uuid", "_key"}

// RelationMethodName derives an owns-one (belongsTo) method name from a FK
// column, stripping a trailing _id/_uuid/_key suffix and camel-casing what
// remains. "user_id" -> "user"; "author_uuid" -> "author".
func RelationMethodName(fkColumn string) string {
	stripped := fkColumn
	for _, suffix := range relationSuffixes {
		if strings.HasSuffix(stripped, suffix) {
			stripped = strings.TrimSuffix(stripped, suffix)
			break
		}
	}
	return ToCamelCase(stripped)
}

// HasMany returns the camelCase method name for a hasMany relation pointing
// at a table named tableName. tableName is already plural (a catalog table
// name), so it's singularized before re-pluralizing to keep Pluralize's
// input idempotent: "posts" -> "post" -> "posts", not "postses".
func HasMany(tableName string) string {
	return ToCamelCase(Pluralize(Singularize(tableName)))
}

// HasOne returns the camelCase method name for a singular hasOne relation
// pointing at a table named tableName.
func HasOne(tableName string) string {
	return ToCamelCase(Singularize(tableName))
}

// BelongsToMany returns the camelCase method name for a many-to-many
// relation to a table named tableName, seen from the other side of a pivot.
// Same idempotence concern as HasMany: tableName arrives already plural.
func BelongsToMany(tableName string) string {
	return ToCamelCase(Pluralize(Singularize(tableName)))
}
