package main

import (
	"path/filepath"
	"testing"

	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want []string
	}{
		{name: "empty", csv: "", want: nil},
		{name: "single", csv: "users", want: []string{"users"}},
		{name: "multiple with spaces", csv: "users, posts ,comments", want: []string{"users", "posts", "comments"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTableList(tt.csv)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDialectTagOf(t *testing.T) {
	tests := []struct {
		conn string
		want typemap.Dialect
	}{
		{"mysql://root@tcp(localhost:3306)/app", typemap.DialectMySQL},
		{"postgres://localhost/app", typemap.DialectPostgres},
		{"postgresql://localhost/app", typemap.DialectPostgres},
		{"sqlserver://localhost/app", typemap.DialectMSSQL},
		{"./app.sqlite3", typemap.DialectSQLite},
	}
	for _, tt := range tests {
		if got := dialectTagOf(tt.conn); got != tt.want {
			t.Errorf("dialectTagOf(%q) = %q, want %q", tt.conn, got, tt.want)
		}
	}
}

func TestWriteFilesRefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	files := []namedBody{{Name: "Post.php", Body: "a"}}

	if err := writeFiles(dir, files, false); err != nil {
		t.Fatalf("first write: %v", err)
	}

	err := writeFiles(dir, files, false)
	if err == nil {
		t.Fatal("expected FileAlreadyExistsError on second write")
	}
	if _, ok := err.(*FileAlreadyExistsError); !ok {
		t.Fatalf("expected *FileAlreadyExistsError, got %T", err)
	}

	if err := writeFiles(dir, files, true); err != nil {
		t.Fatalf("expected --force to allow overwrite, got: %v", err)
	}
	if _, err := filepath.Glob(filepath.Join(dir, "Post.php")); err != nil {
		t.Fatalf("unexpected glob error: %v", err)
	}
}
