package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sepehr-mohseni/elosql/internal/emit/model"

	"github.com/sepehr-mohseni/elosql"
)

var (
	modelsTables          []string
	modelsPreview         bool
	modelsNoRelationships bool
	modelsNoScopes        bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Generate Eloquent model stubs only",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().StringArrayVar(&modelsTables, "table", nil, "restrict generation to this table, repeatable")
	modelsCmd.Flags().BoolVar(&modelsPreview, "preview", false, "print generated stubs to stdout instead of writing files")
	modelsCmd.Flags().BoolVar(&modelsNoRelationships, "no-relationships", false, "omit relationship methods")
	modelsCmd.Flags().BoolVar(&modelsNoScopes, "no-scopes", false, "omit query scope stubs")
}

func runModels(cmd *cobra.Command, args []string) error {
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

	opts := &elosql.Options{ExcludeTables: cfg.ExcludeTables, Tables: modelsTables}
	tables, err := elosql.ExtractSchema(ctx, conn, tm, opts, logger)
	if err != nil {
		return fmt.Errorf("extract schema: %w", err)
	}

	mcfg := model.Config{
		Namespace:             cfg.Models.Namespace,
		BaseClass:             cfg.Models.BaseClass,
		GenerateRelationships: cfg.Models.GenerateRelationships && !modelsNoRelationships,
		GenerateScopes:        cfg.Models.GenerateScopes && !modelsNoScopes,
		UseFillable:           cfg.Models.UseFillable,
		GuardedColumns:        cfg.Models.GuardedColumns,
	}

	files := elosql.GenerateModels(tables, tm, mcfg)

	if jsonOutput {
		out := make([]map[string]string, len(files))
		for i, f := range files {
			out[i] = map[string]string{"name": f.Name, "body": f.Body}
		}
		return printJSON(out)
	}
	named := make([]namedBody, len(files))
	for i, f := range files {
		named[i] = namedBody{Name: f.Name, Body: f.Body}
	}
	if modelsPreview {
		printPreview(named)
		return nil
	}

	dir := cfg.Models.Path
	if dir == "" {
		dir = "app/Models"
	}
	return writeFiles(dir, named, forceOverwrite)
}
