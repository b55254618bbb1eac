package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
	"github.com/twiced-technology-gmbh/studyplanner/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify planner configuration",
	Long:  `View the full configuration, get a specific key, or set a writable value.`,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

// stringAccessor is a writable accessor over a string field. Validation is
// left to Config.Validate.
func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

// secret hides a value that may come from the environment.
func secret(v string) any {
	if v == "" {
		return ""
	}
	return "********"
}

func configAccessors() map[string]configAccessor {
	accessors := map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"name":                     stringAccessor(func(c *config.Config) *string { return &c.Name }),
		"store.backend":            stringAccessor(func(c *config.Config) *string { return &c.Store.Backend }),
		"store.local.file":         stringAccessor(func(c *config.Config) *string { return &c.Store.Local.File }),
		"store.files.dir":          stringAccessor(func(c *config.Config) *string { return &c.Store.Files.Dir }),
		"store.firestore.project_id":  stringAccessor(func(c *config.Config) *string { return &c.Store.Firestore.ProjectID }),
		"store.firestore.database": stringAccessor(func(c *config.Config) *string { return &c.Store.Firestore.Database }),
		"store.firestore.collection": stringAccessor(func(c *config.Config) *string {
			return &c.Store.Firestore.Collection
		}),
		"store.firestore.credentials_file": stringAccessor(func(c *config.Config) *string {
			return &c.Store.Firestore.CredentialsFile
		}),
		"store.firestore.endpoint": stringAccessor(func(c *config.Config) *string { return &c.Store.Firestore.Endpoint }),
		"store.firestore.api_key": {
			get:      func(c *config.Config) any { return secret(c.Store.Firestore.APIKey) },
			set:      func(c *config.Config, v string) error { c.Store.Firestore.APIKey = v; return nil },
			writable: true,
		},
		"store.sql.driver": stringAccessor(func(c *config.Config) *string { return &c.Store.SQL.Driver }),
		"store.sql.dsn": {
			get:      func(c *config.Config) any { return secret(c.Store.SQL.DSN) },
			set:      func(c *config.Config, v string) error { c.Store.SQL.DSN = v; return nil },
			writable: true,
		},
		"defaults.filter":   stringAccessor(func(c *config.Config) *string { return &c.Defaults.Filter }),
		"defaults.sort":     stringAccessor(func(c *config.Config) *string { return &c.Defaults.Sort }),
		"defaults.priority": stringAccessor(func(c *config.Config) *string { return &c.Defaults.Priority }),
		"defaults.category": stringAccessor(func(c *config.Config) *string { return &c.Defaults.Category }),
		"locale":            stringAccessor(func(c *config.Config) *string { return &c.Locale }),
		"export.ratio":      stringAccessor(func(c *config.Config) *string { return &c.Export.Ratio }),
		"export.format":     stringAccessor(func(c *config.Config) *string { return &c.Export.Format }),
		"export.dir":        stringAccessor(func(c *config.Config) *string { return &c.Export.Dir }),
		"export.schedule":   stringAccessor(func(c *config.Config) *string { return &c.Export.Schedule }),
		"export.scale": {
			get: func(c *config.Config) any { return c.Export.Scale },
			set: func(c *config.Config, v string) error {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput,
						"invalid export.scale %q: must be a number", v)
				}
				c.Export.Scale = f
				return nil // validation handles range check
			},
			writable: true,
		},
		"server.addr": stringAccessor(func(c *config.Config) *string { return &c.Server.Addr }),
		"server.allowed_origins": {
			get: func(c *config.Config) any { return c.Server.AllowedOrigins },
			set: func(c *config.Config, v string) error {
				var origins []string
				for _, o := range strings.Split(v, ",") {
					if o = strings.TrimSpace(o); o != "" {
						origins = append(origins, o)
					}
				}
				c.Server.AllowedOrigins = origins
				return nil
			},
			writable: true,
		},
		"log.level": stringAccessor(func(c *config.Config) *string { return &c.Log.Level }),
	}
	return accessors
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"name",
		"store.backend",
		"store.local.file",
		"store.files.dir",
		"store.firestore.project_id",
		"store.firestore.database",
		"store.firestore.collection",
		"store.firestore.credentials_file",
		"store.firestore.endpoint",
		"store.firestore.api_key",
		"store.sql.driver",
		"store.sql.dsn",
		"defaults.filter",
		"defaults.sort",
		"defaults.priority",
		"defaults.category",
		"locale",
		"export.ratio",
		"export.format",
		"export.scale",
		"export.dir",
		"export.schedule",
		"server.addr",
		"server.allowed_origins",
		"log.level",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	// Table mode: key-value pairs.
	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-34s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	accessors := configAccessors()
	acc, ok := accessors[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	accessors := configAccessors()
	acc, ok := accessors[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key)
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case []string:
		if len(v) == 0 {
			return "--"
		}
		return strings.Join(v, ", ")
	case string:
		if v == "" {
			return "--"
		}
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
