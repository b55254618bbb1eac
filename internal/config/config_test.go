package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twiced-technology-gmbh/studyplanner/internal/export"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

func TestInitAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultDir)
	if _, err := Init(dir, "Semester"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "Semester" {
		t.Errorf("Expected name Semester, got %s", cfg.Name)
	}
	if cfg.Store.Backend != DefaultBackend {
		t.Errorf("Expected backend %s, got %s", DefaultBackend, cfg.Store.Backend)
	}
	if cfg.LocalPath() != filepath.Join(cfg.Dir(), DefaultLocalFile) {
		t.Errorf("Unexpected local path %s", cfg.LocalPath())
	}
	if cfg.DefaultPriority() != task.Medium || cfg.DefaultCategory() != task.Homework {
		t.Errorf("Expected Medium/Homework defaults, got %s/%s", cfg.DefaultPriority(), cfg.DefaultCategory())
	}
	opts := cfg.ViewOptions()
	if opts.Filter != view.All || opts.Sort != view.ByDeadline || opts.Locale.String() != "en" {
		t.Errorf("Unexpected view options %+v", opts)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("Expected warn level, got %v", cfg.LogLevel())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"no name", func(c *Config) { c.Name = " " }, "name is required"},
		{"bad backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"bad driver", func(c *Config) { c.Store.Backend = "sql"; c.Store.SQL.Driver = "mysql" }, "store.sql.driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = "sql"; c.Store.SQL.Driver = "postgres" }, "dsn is required"},
		{"bad filter", func(c *Config) { c.Defaults.Filter = "month" }, "defaults.filter"},
		{"bad priority", func(c *Config) { c.Defaults.Priority = "Urgent" }, "defaults.priority"},
		{"bad category", func(c *Config) { c.Defaults.Category = "Lab" }, "defaults.category"},
		{"bad ratio", func(c *Config) { c.Export.Ratio = "banner" }, "export.ratio"},
		{"bad scale", func(c *Config) { c.Export.Scale = 9 }, "export.scale"},
		{"negative scale", func(c *Config) { c.Export.Scale = -1 }, "export.scale"},
		{"bad schedule", func(c *Config) { c.Export.Schedule = "25:00" }, "export.schedule"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad locale", func(c *Config) { c.Locale = "not a locale!" }, "locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault("test")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestMigrateV1(t *testing.T) {
	dir := t.TempDir()
	v1 := `version: 1
name: Old planner
store:
  backend: local
defaults:
  priority: High
  category: Exam
log:
  level: info
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(v1), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Expected version %d, got %d", CurrentVersion, cfg.Version)
	}
	if cfg.Export.Ratio != DefaultExportRatio || cfg.Export.Format != DefaultExportFormat {
		t.Errorf("Expected export defaults, got %+v", cfg.Export)
	}
	if cfg.Defaults.Priority != "High" || cfg.Log.Level != "info" {
		t.Errorf("Expected existing values kept, got %+v / %+v", cfg.Defaults, cfg.Log)
	}

	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "version: 2") {
		t.Errorf("Expected migrated config to be persisted, got:\n%s", data)
	}
}

func TestMigrateNewerVersion(t *testing.T) {
	cfg := NewDefault("x")
	cfg.Version = CurrentVersion + 1
	if err := migrate(cfg); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func TestEnvOverridesAreNotSaved(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir, "Env")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cfg.Store.Backend = "sql"
	cfg.Store.SQL.Driver = "postgres"
	cfg.Store.SQL.DSN = ""
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvSQLDSN, "postgres://secret@db/planner")
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SQLDSN() != "postgres://secret@db/planner" {
		t.Errorf("Expected DSN from env, got %q", loaded.SQLDSN())
	}
	if err := loaded.Save(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if strings.Contains(string(data), "secret") {
		t.Errorf("Expected env DSN not to be written, got:\n%s", data)
	}
}

func TestFindDir(t *testing.T) {
	root := t.TempDir()
	plannerDir := filepath.Join(root, DefaultDir)
	if _, err := Init(plannerDir, "Find"); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	got, err := FindDir(nested)
	if err != nil {
		t.Fatalf("FindDir failed: %v", err)
	}
	if got != plannerDir {
		t.Errorf("Expected %s, got %s", plannerDir, got)
	}
}

func TestPaths(t *testing.T) {
	cfg := NewDefault("p")
	cfg.SetDir("/data/.planner")
	cfg.Store.SQL.DSN = ""
	if got := cfg.SQLDSN(); got != filepath.Join("/data/.planner", DefaultSQLiteFile) {
		t.Errorf("Unexpected sqlite path %s", got)
	}
	cfg.Export.Dir = "/tmp/out"
	if got := cfg.ExportPath(); got != "/tmp/out" {
		t.Errorf("Expected absolute export dir kept, got %s", got)
	}
	if opts := cfg.ExportOptions(); opts.Ratio != export.Square || opts.Format != export.PNG {
		t.Errorf("Unexpected export options %+v", opts)
	}
}

func TestParseClock(t *testing.T) {
	d, err := ParseClock("07:30")
	if err != nil {
		t.Fatalf("ParseClock failed: %v", err)
	}
	if d.Minutes() != 450 {
		t.Errorf("Expected 450 minutes, got %v", d.Minutes())
	}
	if _, err := ParseClock("7pm"); err == nil {
		t.Error("Expected error for 7pm")
	}
}
