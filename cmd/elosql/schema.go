package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sepehr-mohseni/elosql/internal/depgraph"
	"github.com/sepehr-mohseni/elosql/internal/emit/model"

	"github.com/sepehr-mohseni/elosql"
)

var schemaTables string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate both migration scripts and model stubs",
	RunE:  runSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaTables, "tables", "", "comma-separated table list, defaults to every table")
}

func runSchema(cmd *cobra.Command, args []string) error {
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

	opts := &elosql.Options{ExcludeTables: cfg.ExcludeTables, Tables: parseTableList(schemaTables)}
	tables, err := elosql.ExtractSchema(ctx, conn, tm, opts, logger)
	if err != nil {
		return fmt.Errorf("extract schema: %w", err)
	}
	scripts, err := elosql.GenerateMigrations(tables, tm, cfg.Features.SeparateForeignKeys, startTimeForRun())
	if err != nil {
		if _, ok := err.(*depgraph.CircularDependencyError); !ok {
			return fmt.Errorf("generate migrations: %w", err)
		}
		logger.Warn("circular foreign-key dependency detected; foreign keys were routed through separate files")
	}

	mcfg := model.Config{
		Namespace:             cfg.Models.Namespace,
		BaseClass:             cfg.Models.BaseClass,
		GenerateRelationships: cfg.Models.GenerateRelationships,
		GenerateScopes:        cfg.Models.GenerateScopes,
		UseFillable:           cfg.Models.UseFillable,
		GuardedColumns:        cfg.Models.GuardedColumns,
	}
	models := elosql.GenerateModels(tables, tm, mcfg)

	migrationsDir := cfg.MigrationsPath
	if migrationsDir == "" {
		migrationsDir = "database/migrations"
	}
	modelsDir := cfg.Models.Path
	if modelsDir == "" {
		modelsDir = "app/Models"
	}

	if err := writeFiles(migrationsDir, scriptFilesToNamed(scripts), forceOverwrite); err != nil {
		return err
	}
	modelFiles := make([]namedBody, len(models))
	for i, f := range models {
		modelFiles[i] = namedBody{Name: f.Name, Body: f.Body}
	}
	return writeFiles(modelsDir, modelFiles, forceOverwrite)
}
