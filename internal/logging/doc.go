// Package logging builds the application's slog loggers and shared attribute
// helpers.
//
// The console format renders one key=value line per record with the component
// attribute promoted to a message prefix; the json format emits standard slog
// JSON with lowercase level names and RFC3339 timestamps. Components obtain
// scoped loggers through NewComponentLogger so log lines stay attributable.
package logging
