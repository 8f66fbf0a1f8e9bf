package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sepehr-mohseni/elosql/internal/relate"
	"github.com/sepehr-mohseni/elosql/internal/schema"

	"github.com/sepehr-mohseni/elosql"
)

var previewTables string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Parse the schema and print it without generating any files",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewTables, "tables", "", "comma-separated table list, defaults to every table")
}

func runPreview(cmd *cobra.Command, args []string) error {
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

	opts := &elosql.Options{ExcludeTables: cfg.ExcludeTables, Tables: parseTableList(previewTables)}
	tables, err := elosql.ExtractSchema(ctx, conn, tm, opts, logger)
	if err != nil {
		return fmt.Errorf("extract schema: %w", err)
	}

	if jsonOutput {
		rels := relate.NewDetector(tables).Detect()
		return printJSON(map[string]interface{}{"tables": tables, "relationships": rels})
	}
	printTables(tables)
	return nil
}

func printTables(tables []schema.Table) {
	rels := relate.NewDetector(tables).Detect()
	byTable := map[string][]relate.Relationship{}
	for _, r := range rels {
		byTable[r.Table] = append(byTable[r.Table], r)
	}

	for _, t := range tables {
		fmt.Printf("%s\n", t.Name)
		for _, c := range t.Columns {
			nullable := ""
			if c.Nullable {
				nullable = ", nullable"
			}
			fmt.Printf("  %-24s %s%s\n", c.Name, c.Type, nullable)
		}
		for _, fk := range t.ForeignKeys {
			fmt.Printf("  FK %v -> %s(%v)\n", fk.Columns, fk.ReferencedTable, fk.ReferencedColumns)
		}
		for _, r := range byTable[t.Name] {
			fmt.Printf("  %s %s -> %s\n", r.Kind, r.Method, r.Target)
		}
		fmt.Println()
	}
}
