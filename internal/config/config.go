package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/store"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no planner found (run 'planner init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the planner configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Name     string         `yaml:"name"`
	Store    StoreConfig    `yaml:"store"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Locale   string         `yaml:"locale,omitempty"`
	Export   ExportConfig   `yaml:"export"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`

	// dir is the absolute path to the planner directory (not serialized).
	dir string `yaml:"-"`
}

// StoreConfig selects and configures the task store.
type StoreConfig struct {
	Backend   string          `yaml:"backend"`
	Local     LocalConfig     `yaml:"local,omitempty"`
	Files     FilesConfig     `yaml:"files,omitempty"`
	Firestore FirestoreConfig `yaml:"firestore,omitempty"`
	SQL       SQLConfig       `yaml:"sql,omitempty"`
}

// LocalConfig configures the local JSON slot.
type LocalConfig struct {
	File string `yaml:"file,omitempty"`
}

// FilesConfig configures the markdown file store.
type FilesConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// FirestoreConfig configures the Cloud Firestore store.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id,omitempty"`
	Database        string `yaml:"database,omitempty"`
	Collection      string `yaml:"collection,omitempty"`
	APIKey          string `yaml:"api_key,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
}

// SQLConfig configures the SQL store.
type SQLConfig struct {
	Driver string `yaml:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// DefaultsConfig holds the startup view and new-task defaults.
type DefaultsConfig struct {
	Filter   string `yaml:"filter"`
	Sort     string `yaml:"sort"`
	Priority string `yaml:"priority"`
	Category string `yaml:"category"`
}

// ExportConfig holds image export settings.
type ExportConfig struct {
	Ratio    string  `yaml:"ratio"`
	Format   string  `yaml:"format"`
	Scale    float64 `yaml:"scale,omitempty"`
	Dir      string  `yaml:"dir"`
	Schedule string  `yaml:"schedule,omitempty"` // HH:MM daily digest, empty disables
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Dir returns the absolute path to the planner directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the planner directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// resolve makes a relative path relative to the planner directory.
func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// LocalPath returns the absolute path of the local slot file.
func (c *Config) LocalPath() string {
	f := c.Store.Local.File
	if f == "" {
		f = DefaultLocalFile
	}
	return c.resolve(f)
}

// FilesPath returns the absolute path of the markdown task directory.
func (c *Config) FilesPath() string {
	d := c.Store.Files.Dir
	if d == "" {
		d = DefaultFilesDir
	}
	return c.resolve(d)
}

// SQLDriver returns the sql driver name, sqlite when unset.
func (c *Config) SQLDriver() string {
	if c.Store.SQL.Driver == "" {
		return "sqlite"
	}
	return c.Store.SQL.Driver
}

// SQLDSN returns the data source name. For sqlite a relative file is
// resolved against the planner directory.
func (c *Config) SQLDSN() string {
	dsn := c.Store.SQL.DSN
	if c.Store.SQL.Driver == "postgres" {
		return dsn
	}
	if dsn == "" {
		dsn = DefaultSQLiteFile
	}
	if strings.HasPrefix(dsn, "file:") || dsn == ":memory:" {
		return dsn
	}
	return c.resolve(dsn)
}

// CredentialsPath returns the Firestore credentials file, resolved.
func (c *Config) CredentialsPath() string {
	return c.resolve(c.Store.Firestore.CredentialsFile)
}

// ExportPath returns the absolute export directory.
func (c *Config) ExportPath() string {
	d := c.Export.Dir
	if d == "" {
		d = DefaultExportDir
	}
	return c.resolve(d)
}

// LocaleTag returns the collation locale, falling back to English.
func (c *Config) LocaleTag() language.Tag {
	if c.Locale == "" {
		return language.English
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// LogLevel returns the configured slog level, falling back to warn.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// ViewOptions returns the startup view options.
func (c *Config) ViewOptions() view.Options {
	opts := view.Options{Filter: view.All, Sort: view.ByDeadline, Locale: c.LocaleTag()}
	if f, err := view.ParseFilter(c.Defaults.Filter); err == nil {
		opts.Filter = f
	}
	if s, err := view.ParseSort(c.Defaults.Sort); err == nil {
		opts.Sort = s
	}
	return opts
}

// DefaultPriority returns the priority given to new tasks.
func (c *Config) DefaultPriority() task.Priority {
	p, err := task.ParsePriority(c.Defaults.Priority)
	if err != nil {
		return task.Medium
	}
	return p
}

// DefaultCategory returns the category given to new tasks.
func (c *Config) DefaultCategory() task.Category {
	cat, err := task.ParseCategory(c.Defaults.Category)
	if err != nil {
		return task.Homework
	}
	return cat
}

// ExportOptions returns the configured export options.
func (c *Config) ExportOptions() export.Options {
	opts := export.Options{Ratio: export.Square, Format: export.PNG, Scale: c.Export.Scale}
	if r, err := export.ParseRatio(c.Export.Ratio); err == nil {
		opts.Ratio = r
	}
	if f, err := export.ParseFormat(c.Export.Format); err == nil {
		opts.Format = f
	}
	return opts
}

// NewDefault creates a Config with default values.
func NewDefault(name string) *Config {
	return &Config{
		Version: CurrentVersion,
		Name:    name,
		Store: StoreConfig{
			Backend: DefaultBackend,
			Local:   LocalConfig{File: DefaultLocalFile},
		},
		Defaults: DefaultsConfig{
			Filter:   DefaultFilter,
			Sort:     DefaultSort,
			Priority: DefaultPriority,
			Category: DefaultCategory,
		},
		Locale: DefaultLocale,
		Export: ExportConfig{
			Ratio:  DefaultExportRatio,
			Format: DefaultExportFormat,
			Scale:  1,
			Dir:    DefaultExportDir,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			AllowedOrigins: append([]string{}, DefaultAllowedOrigins...),
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("%w: invalid locale %q: %w", ErrInvalid, c.Locale, err)
		}
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: invalid log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return fmt.Errorf("%w: store.backend %q must be one of %s",
			ErrInvalid, c.Store.Backend, strings.Join(store.Backends, ", "))
	}
	if c.Store.Backend == store.BackendSQL {
		switch c.Store.SQL.Driver {
		case "", "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: store.sql.driver %q must be sqlite or postgres", ErrInvalid, c.Store.SQL.Driver)
		}
		if c.Store.SQL.Driver == "postgres" && c.Store.SQL.DSN == "" {
			return fmt.Errorf("%w: store.sql.dsn is required for postgres", ErrInvalid)
		}
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if _, err := view.ParseFilter(c.Defaults.Filter); err != nil {
		return fmt.Errorf("%w: defaults.filter: %w", ErrInvalid, err)
	}
	if _, err := view.ParseSort(c.Defaults.Sort); err != nil {
		return fmt.Errorf("%w: defaults.sort: %w", ErrInvalid, err)
	}
	if _, err := task.ParsePriority(c.Defaults.Priority); err != nil {
		return fmt.Errorf("%w: defaults.priority: %w", ErrInvalid, err)
	}
	if _, err := task.ParseCategory(c.Defaults.Category); err != nil {
		return fmt.Errorf("%w: defaults.category: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) validateExport() error {
	if _, err := export.ParseRatio(c.Export.Ratio); err != nil {
		return fmt.Errorf("%w: export.ratio: %w", ErrInvalid, err)
	}
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("%w: export.format: %w", ErrInvalid, err)
	}
	if c.Export.Scale != 0 {
		if err := export.CheckScale(c.Export.Scale); err != nil {
			return fmt.Errorf("%w: export.scale: %w", ErrInvalid, err)
		}
	}
	if c.Export.Schedule != "" {
		if _, err := ParseClock(c.Export.Schedule); err != nil {
			return fmt.Errorf("%w: export.schedule: %w", ErrInvalid, err)
		}
	}
	return nil
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ApplyEnv overrides secrets from the environment. The values are never
// written back by Save.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvFirestoreAPIKey); v != "" {
		c.Store.Firestore.APIKey = v
	}
	if v := os.Getenv(EnvFirestoreCredentials); v != "" {
		c.Store.Firestore.CredentialsFile = v
	}
	if v := os.Getenv(EnvSQLDSN); v != "" {
		c.Store.SQL.DSN = v
	}
}

// Init creates a new planner in the given directory with default settings.
func Init(dir, name string) (*Config, error) {
	const dirMode = 0o750

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg := NewDefault(name)
	cfg.SetDir(absDir)

	if err := os.MkdirAll(absDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating planner directory: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("writing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to its config file. Values taken from the
// environment are not written.
func (c *Config) Save() error {
	onDisk := *c
	if os.Getenv(EnvFirestoreAPIKey) != "" {
		onDisk.Store.Firestore.APIKey = ""
	}
	if os.Getenv(EnvFirestoreCredentials) != "" {
		onDisk.Store.Firestore.CredentialsFile = ""
	}
	if os.Getenv(EnvSQLDSN) != "" {
		onDisk.Store.SQL.DSN = ""
	}
	data, err := yaml.Marshal(&onDisk)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(c.ConfigPath(), data, fileMode)
}

// Load reads and validates a config from the given planner directory.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.dir = absDir

	// Migrate old config versions forward before validating.
	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}

	// Persist migrated config so future loads skip re-migration.
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FindDir walks upward from startDir looking for a planner directory
// containing config.yml. Returns the absolute path to the planner directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		// Also check if we're inside the planner directory itself.
		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.PlannerNotFound,
				"no planner found (run 'planner init' to create one)")
		}
		dir = parent
	}
}
