// Package output handles formatting CLI output as table, JSON, or compact.
package output

import (
	"os"
	"strings"
)

// Format represents an output format.
type Format string

// Output formats.
const (
	FormatJSON    Format = "json"
	FormatTable   Format = "table"
	FormatCompact Format = "compact"
)

// EnvFormat names the environment variable that picks a format when no
// flag does.
const EnvFormat = "PLANNER_OUTPUT"

// ParseFormat matches s case-insensitively. "oneline" is an alias for
// compact.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, true
	case "table":
		return FormatTable, true
	case "compact", "oneline":
		return FormatCompact, true
	}
	return "", false
}

// Detect returns the format chosen by flags, then PLANNER_OUTPUT, then
// table. An unrecognized environment value is ignored.
func Detect(jsonFlag, tableFlag, compactFlag bool) Format {
	switch {
	case jsonFlag:
		return FormatJSON
	case compactFlag:
		return FormatCompact
	case tableFlag:
		return FormatTable
	}
	if f, ok := ParseFormat(os.Getenv(EnvFormat)); ok {
		return f
	}
	return FormatTable
}
