// Package scan implements the migration-aware comparator's collaborator: a
// lexical text scan over migration files that recovers the column names a
// migration declares, without parsing the host language or SQL it's written
// in. Helper directives that imply a column without naming it literally
// (rememberToken(), ulid(), timestamps()'s created_at/updated_at pair) are
// recognized only through the fixed implicitColumns table; any helper not
// in that table is invisible to the scan.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// columnCallPattern matches a builder-style column declaration call whose
// first argument is the column name: $table->string('email'), or the same
// shape with double quotes.
var columnCallPattern = regexp.MustCompile(`->\s*\w+\s*\(\s*['"]([A-Za-z0-9_]+)['"]`)

// implicitColumns maps a recognized zero-argument helper call to the column
// name(s) it implies, covering the common cases spec.md calls out. Anything
// not in this table is simply missed, which is the documented limitation.
var implicitColumns = map[string][]string{
	"timestamps":       {"created_at", "updated_at"},
	"softDeletes":      {"deleted_at"},
	"rememberToken":    {"remember_token"},
	"id":               {"id"},
	"ulid":             {"ulid"},
	"uuid":             {"uuid"},
}

var implicitCallPattern = regexp.MustCompile(`->\s*(\w+)\s*\(\s*\)`)

// Scanner scans migration files under a root directory for column
// declarations belonging to a named table. It holds no cached state: each
// call re-reads the directory, since migration files change between runs.
type Scanner struct {
	root string
}

// NewScanner returns a Scanner rooted at the given migrations directory.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// DeclaredColumns scans every file under the scanner's root whose content
// references the given table name and returns the union of column names it
// can lexically recover. Files are visited in directory order so behavior
// is deterministic across runs; the returned column order is also
// deterministic (sorted).
func (s *Scanner) DeclaredColumns(ctx context.Context, table string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	seen := map[string]bool{}
	var columns []string
	addColumn := func(name string) {
		if !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := string(content)
		if !strings.Contains(text, table) {
			continue
		}

		for _, m := range columnCallPattern.FindAllStringSubmatch(text, -1) {
			addColumn(m[1])
		}
		for _, m := range implicitCallPattern.FindAllStringSubmatch(text, -1) {
			if cols, ok := implicitColumns[m[1]]; ok {
				for _, c := range cols {
					addColumn(c)
				}
			}
		}
	}

	sort.Strings(columns)
	return columns, nil
}
