package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sepehr-mohseni/elosql/internal/compare"
	"github.com/sepehr-mohseni/elosql/internal/depgraph"
	"github.com/sepehr-mohseni/elosql/internal/emit/script"
	"github.com/sepehr-mohseni/elosql/internal/scan"
	"github.com/sepehr-mohseni/elosql/internal/schema"

	"github.com/sepehr-mohseni/elosql"
)

var (
	migrationsTables     string
	migrationsDiff       bool
	migrationsFresh      bool
	migrationsPreview    bool
	migrationsSeparateFK bool
)

var migrationsCmd = &cobra.Command{
	Use:   "migrations",
	Short: "Generate Laravel migration scripts only",
	RunE:  runMigrations,
}

func init() {
	migrationsCmd.Flags().StringVar(&migrationsTables, "tables", "", "comma-separated table list, defaults to every table")
	migrationsCmd.Flags().BoolVar(&migrationsDiff, "diff", false, "only emit migrations for tables whose columns differ from what the existing migration files declare")
	migrationsCmd.Flags().BoolVar(&migrationsFresh, "fresh", false, "delete every file in the migrations directory and regenerate everything")
	migrationsCmd.Flags().BoolVar(&migrationsPreview, "preview", false, "print generated scripts to stdout instead of writing files")
	migrationsCmd.Flags().BoolVar(&migrationsSeparateFK, "separate-fk", false, "emit foreign keys in trailing files instead of inline")
}

func runMigrations(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}
	conn, err := resolveConnection(cfg)
	if err != nil {
		return err
	}
	tm := typeMapFor(conn, cfg)

	opts := &elosql.Options{ExcludeTables: cfg.ExcludeTables}
	if migrationsTables != "" {
		opts.Tables = parseTableList(migrationsTables)
	}

	tables, err := elosql.ExtractSchema(ctx, conn, tm, opts, logger)
	if err != nil {
		return fmt.Errorf("extract schema: %w", err)
	}

	dir := cfg.MigrationsPath
	if dir == "" {
		dir = "database/migrations"
	}

	if migrationsDiff && !migrationsFresh {
		tables, err = changedTablesOnly(ctx, tables, dir)
		if err != nil {
			return fmt.Errorf("compare against existing migrations: %w", err)
		}
		if len(tables) == 0 {
			logger.Info("no table structure changed since the last migration scan")
			return nil
		}
	}

	separateFK := migrationsSeparateFK || cfg.Features.SeparateForeignKeys
	files, err := elosql.GenerateMigrations(tables, tm, separateFK, startTimeForRun())
	if err != nil {
		if _, ok := err.(*depgraph.CircularDependencyError); !ok {
			return fmt.Errorf("generate migrations: %w", err)
		}
		logger.Warn("circular foreign-key dependency detected; foreign keys were routed through separate files", zapFields(err)...)
	}

	if jsonOutput {
		return printJSON(scriptFilesToPlain(files))
	}
	if migrationsPreview {
		printPreview(scriptFilesToNamed(files))
		return nil
	}

	if migrationsFresh {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return writeFiles(dir, scriptFilesToNamed(files), forceOverwrite)
}

// changedTablesOnly narrows tables down to those whose columns drifted from
// what a lexical scan of the migrations directory declares, per --diff.
func changedTablesOnly(ctx context.Context, tables []schema.Table, dir string) ([]schema.Table, error) {
	scanner := scan.NewScanner(dir)
	diffs, err := compare.NewComparator().CompareWithMigrations(ctx, tables, scanner)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]bool, len(diffs))
	for _, d := range diffs {
		if len(d.ColumnsAdded) > 0 || len(d.ColumnsMissing) > 0 {
			changed[d.Table] = true
		}
	}
	var out []schema.Table
	for _, t := range tables {
		if changed[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}

func scriptFilesToNamed(files []script.File) []namedBody {
	out := make([]namedBody, len(files))
	for i, f := range files {
		out[i] = namedBody{Name: f.Name, Body: f.Body}
	}
	return out
}

func scriptFilesToPlain(files []script.File) []map[string]string {
	out := make([]map[string]string, len(files))
	for i, f := range files {
		out[i] = map[string]string{"name": f.Name, "body": f.Body}
	}
	return out
}

func printPreview(files []namedBody) {
	for _, f := range files {
		fmt.Printf("// %s\n%s\n", f.Name, f.Body)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
