// Package config handles planner configuration.
package config

const (
	// DefaultDir is the default planner directory name.
	DefaultDir = ".planner"
	// DefaultName is the planner name written by init.
	DefaultName = "My Planner"
	// DefaultBackend is the store used by a new planner.
	DefaultBackend = "local"
	// DefaultLocalFile is the local slot file inside the planner directory.
	DefaultLocalFile = "tasks.json"
	// DefaultFilesDir is the task directory used by the files backend.
	DefaultFilesDir = "tasks"
	// DefaultSQLiteFile is the database used by the sql backend with sqlite.
	DefaultSQLiteFile = "tasks.db"
	// DefaultCollection is the Firestore collection holding tasks.
	DefaultCollection = "tasks"

	// DefaultFilter is the filter mode shown at startup.
	DefaultFilter = "all"
	// DefaultSort is the sort mode shown at startup.
	DefaultSort = "deadline"
	// DefaultPriority is the priority of a new task when none is given.
	DefaultPriority = "Medium"
	// DefaultCategory is the category of a new task when none is given.
	DefaultCategory = "Homework"
	// DefaultLocale is the collation locale for subject sorting.
	DefaultLocale = "en"

	// DefaultExportRatio is the card shape used by export.
	DefaultExportRatio = "square"
	// DefaultExportFormat is the image encoding used by export.
	DefaultExportFormat = "png"
	// DefaultExportDir is where exported and scheduled images are written.
	DefaultExportDir = "exports"

	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = "127.0.0.1:8787"

	// DefaultLogLevel is the slog level name.
	DefaultLogLevel = "warn"

	// ConfigFileName is the name of the config file within the planner directory.
	ConfigFileName = "config.yml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2
)

// Environment variables that override secrets so they need not be stored
// in config.yml.
const (
	EnvFirestoreAPIKey      = "PLANNER_FIRESTORE_API_KEY"
	EnvFirestoreCredentials = "PLANNER_FIRESTORE_CREDENTIALS"
	EnvSQLDSN               = "PLANNER_SQL_DSN"
)

// DefaultAllowedOrigins are the CORS origins allowed by a new planner.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
