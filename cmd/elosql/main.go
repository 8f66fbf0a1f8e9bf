// Command elosql introspects a relational schema and generates Laravel
// migration scripts and Eloquent model stubs from it, per spec.md §6's
// five-subcommand surface: schema, migrations, models, preview, diff.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sepehr-mohseni/elosql/internal/config"
	"github.com/sepehr-mohseni/elosql/internal/typemap"
)

var (
	connectionFlag string
	configPath     string
	forceOverwrite bool
	jsonOutput     bool
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "elosql",
	Short: "Introspect a SQL schema and generate Laravel migrations and models",
	Long: `elosql connects to a MySQL, PostgreSQL, SQLite, or SQL Server database,
resolves its tables into a dialect-neutral model, and emits Laravel-style
migration scripts and Eloquent model stubs from it. It can also compare a
live schema against a previous snapshot or a project's migration files.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&connectionFlag, "connection", "", "connection string, overrides the config file's connection key")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to .elosql.yaml (defaults applied if omitted)")
	rootCmd.PersistentFlags().BoolVar(&forceOverwrite, "force", false, "overwrite existing output files")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(schemaCmd, migrationsCmd, modelsCmd, previewCmd, diffCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func loadConfiguration() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func resolveConnection(cfg *config.Config) (string, error) {
	conn := connectionFlag
	if conn == "" {
		conn = cfg.Connection
	}
	if conn == "" {
		return "", fmt.Errorf("no connection string: pass --connection or set `connection` in the config file")
	}
	return conn, nil
}

// typeMapFor builds the dialect type map the connection string implies,
// applying any `type_mappings` overrides the config declares for that
// dialect.
func typeMapFor(connString string, cfg *config.Config) *typemap.Map {
	d := dialectTagOf(connString)
	builder := typemap.NewBuilder(d)
	for token, canonical := range cfg.TypeMappings[string(d)] {
		builder = builder.Override(token, canonical)
	}
	return builder.Build()
}

func dialectTagOf(connString string) typemap.Dialect {
	lower := strings.ToLower(connString)
	switch {
	case strings.HasPrefix(lower, "mysql://"):
		return typemap.DialectMySQL
	case strings.HasPrefix(lower, "mariadb://"):
		return typemap.DialectMariaDB
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.HasPrefix(lower, "pgsql://"):
		return typemap.DialectPostgres
	case strings.HasPrefix(lower, "sqlserver://"), strings.HasPrefix(lower, "mssql://"):
		return typemap.DialectMSSQL
	default:
		return typemap.DialectSQLite
	}
}

// parseTableList splits a comma-separated --tables flag value, trimming
// whitespace around each entry.
func parseTableList(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FileAlreadyExistsError is returned when a write target exists and --force
// wasn't passed, the last of spec.md §7's typed error kinds. It belongs to
// the CLI rather than any core package since file writing is itself named
// as an external collaborator by spec.md §1.
type FileAlreadyExistsError struct {
	Path string
}

func (e *FileAlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists (use --force to overwrite)", e.Path)
}

// writeFiles writes each (name, body) pair into dir, refusing to overwrite
// an existing file unless force is set.
func writeFiles(dir string, files []namedBody, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if !force {
			if _, err := os.Stat(path); err == nil {
				return &FileAlreadyExistsError{Path: path}
			}
		}
		if err := os.WriteFile(path, []byte(f.Body), 0o644); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
	}
	return nil
}

// namedBody is the common shape of script.File and model.File, used so
// writeFiles doesn't need to care which emitter produced them.
type namedBody struct {
	Name string
	Body string
}

// startTimeForRun anchors the first generated migration filename's
// timestamp; successive files increment by one second from here.
func startTimeForRun() time.Time {
	return time.Now()
}

func zapFields(err error) []zap.Field {
	return []zap.Field{zap.Error(err)}
}
