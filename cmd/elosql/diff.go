package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sepehr-mohseni/elosql/internal/compare"
	"github.com/sepehr-mohseni/elosql/internal/scan"
	"github.com/sepehr-mohseni/elosql/internal/schema"

	"github.com/sepehr-mohseni/elosql"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the live schema against the migrations directory and report drift",
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
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
	tables, err := elosql.ExtractSchema(ctx, conn, tm, opts, logger)
	if err != nil {
		return fmt.Errorf("extract schema: %w", err)
	}

	dir := cfg.MigrationsPath
	if dir == "" {
		dir = "database/migrations"
	}

	diffs, err := changedTablesDiff(ctx, tables, dir)
	if err != nil {
		return fmt.Errorf("compare schema: %w", err)
	}

	inSync := len(diffs) == 0
	if jsonOutput {
		if err := printJSON(diffs); err != nil {
			return err
		}
	} else if inSync {
		fmt.Println("schema is in sync with migrations")
	} else {
		for _, d := range diffs {
			fmt.Printf("%s\n", d.Table)
			for _, c := range d.ColumnsAdded {
				fmt.Printf("  + %s (live, undeclared in migrations)\n", c)
			}
			for _, c := range d.ColumnsMissing {
				fmt.Printf("  - %s (declared in migrations, missing live)\n", c)
			}
		}
	}

	if !inSync {
		os.Exit(1)
	}
	return nil
}

func changedTablesDiff(ctx context.Context, tables []schema.Table, dir string) ([]compare.TableMigrationDiff, error) {
	scanner := scan.NewScanner(dir)
	return compare.NewComparator().CompareWithMigrations(ctx, tables, scanner)
}
