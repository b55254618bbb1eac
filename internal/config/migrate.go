package config

import "fmt"

// upgrades[i] moves a config from version i+1 to i+2.
var upgrades = []func(*Config){
	addExportAndServer,
}

// migrate brings cfg up to CurrentVersion in place. Versions this binary
// does not know, older or newer, are rejected with ErrInvalid.
func migrate(cfg *Config) error {
	switch {
	case cfg.Version == CurrentVersion:
		return nil
	case cfg.Version > CurrentVersion:
		return fmt.Errorf("%w: config version %d is newer than this planner understands (%d); upgrade planner",
			ErrInvalid, cfg.Version, CurrentVersion)
	case cfg.Version < 1 || cfg.Version-1 >= len(upgrades):
		return fmt.Errorf("%w: config version %d is invalid", ErrInvalid, cfg.Version)
	}

	for _, up := range upgrades[cfg.Version-1:] {
		up(cfg)
		cfg.Version++
	}
	return nil
}

// addExportAndServer fills the sections that version 1 files predate.
// Values already present are kept.
func addExportAndServer(cfg *Config) {
	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&cfg.Export.Ratio, DefaultExportRatio)
	fill(&cfg.Export.Format, DefaultExportFormat)
	fill(&cfg.Export.Dir, DefaultExportDir)
	fill(&cfg.Server.Addr, DefaultServerAddr)
	fill(&cfg.Log.Level, DefaultLogLevel)
	fill(&cfg.Defaults.Filter, DefaultFilter)
	fill(&cfg.Defaults.Sort, DefaultSort)
	if cfg.Export.Scale == 0 {
		cfg.Export.Scale = 1
	}
}
