// Package logging provides structured logging for appsentry.
//
// It is a thin wrapper around log/slog that applies the configured level,
// format and destination, and stamps every record with the service name and
// version. Component loggers are derived via With:
//
//	log := logging.New(cfg.Logging, version)
//	supLog := log.With("component", "supervisor")
//
// The supervisor's per-iteration and per-termination console lines are
// emitted through this package; the child's own output goes to the app.log
// sink managed by the runner, not through slog.
package logging
