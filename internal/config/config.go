// Package config binds the recognized configuration keys from spec.md §6
// into a typed Config struct via viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/sepehr-mohseni/elosql/internal/schema"
)

// InvalidConfigurationError reports a bad value for a recognized key,
// surfaced at boot per spec.md §7.
type InvalidConfigurationError struct {
	Key    string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %q: %s", e.Key, e.Reason)
}

// ModelsConfig holds the `models.*` key group.
type ModelsConfig struct {
	Path                  string
	Namespace             string
	BaseClass             string
	GenerateRelationships bool
	GenerateScopes        bool
	UseFillable           bool
	GuardedColumns        []string
}

// FormattingConfig holds the `formatting.*` key group.
type FormattingConfig struct {
	Indent      string
	SortImports bool
}

// FeaturesConfig holds the `features.*` key group.
type FeaturesConfig struct {
	SeparateForeignKeys bool
	DetectPolymorphic   bool
}

// Config is the fully resolved configuration every CLI command receives.
// Core packages never import viper; they take the plain fields out of this
// struct, matching spec.md §5's "no process-wide state" rule extended to
// configuration.
type Config struct {
	Connection     string
	ExcludeTables  []string
	MigrationsPath string
	Models         ModelsConfig
	TypeMappings   map[string]map[string]schema.Type
	Formatting     FormattingConfig
	Features       FeaturesConfig
}

// Load reads configuration from the given file path (if non-empty) plus
// environment overrides prefixed ELOSQL_, and binds it into a Config. A
// missing config file is not an error — every key has a sensible default.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ELOSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Connection:     v.GetString("connection"),
		ExcludeTables:  v.GetStringSlice("exclude_tables"),
		MigrationsPath: v.GetString("migrations_path"),
		Models: ModelsConfig{
			Path:                  v.GetString("models.path"),
			Namespace:             v.GetString("models.namespace"),
			BaseClass:             v.GetString("models.base_class"),
			GenerateRelationships: v.GetBool("models.generate_relationships"),
			GenerateScopes:        v.GetBool("models.generate_scopes"),
			UseFillable:           v.GetBool("models.use_fillable"),
			GuardedColumns:        v.GetStringSlice("models.guarded_columns"),
		},
		Formatting: FormattingConfig{
			Indent:      v.GetString("formatting.indent"),
			SortImports: v.GetBool("formatting.sort_imports"),
		},
		Features: FeaturesConfig{
			SeparateForeignKeys: v.GetBool("features.separate_foreign_keys"),
			DetectPolymorphic:   v.GetBool("features.detect_polymorphic"),
		},
	}

	cfg.TypeMappings = parseTypeMappings(v)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("migrations_path", "database/migrations")
	v.SetDefault("models.path", "app/Models")
	v.SetDefault("models.namespace", "App\\Models")
	v.SetDefault("models.base_class", "Model")
	v.SetDefault("models.generate_relationships", true)
	v.SetDefault("models.generate_scopes", false)
	v.SetDefault("models.use_fillable", true)
	v.SetDefault("formatting.indent", "    ")
	v.SetDefault("formatting.sort_imports", true)
	v.SetDefault("features.separate_foreign_keys", false)
	v.SetDefault("features.detect_polymorphic", true)
}

// parseTypeMappings reads the `type_mappings` key, a map of dialect name to
// a map of native token to canonical type name.
func parseTypeMappings(v *viper.Viper) map[string]map[string]schema.Type {
	raw := v.GetStringMap("type_mappings")
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]map[string]schema.Type, len(raw))
	for dialect, value := range raw {
		nested, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		tokens := make(map[string]schema.Type, len(nested))
		for token, canonical := range nested {
			if s, ok := canonical.(string); ok {
				tokens[token] = schema.Type(s)
			}
		}
		out[dialect] = tokens
	}
	return out
}

func (c *Config) validate() error {
	if c.Formatting.Indent != "" && c.Formatting.Indent != "\t" && strings.Trim(c.Formatting.Indent, " ") != "" {
		return &InvalidConfigurationError{Key: "formatting.indent", Reason: "must be all spaces or a single tab"}
	}
	return nil
}
