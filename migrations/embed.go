// Package migrations embeds the SQL migration files into the binary, so the
// supervisor needs no schema files on disk at runtime.
package migrations

import (
	"embed"

	"github.com/nwalker85/appsentry/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
