// Package api provides the read-only HTTP status surface for the supervisor.
//
// Three endpoints under /api/v1: health (supervisor plus attached
// subsystems), status (the current supervision snapshot), and runs (recorded
// child run history). There is no write path; nothing reachable over HTTP
// can influence a supervision decision.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
