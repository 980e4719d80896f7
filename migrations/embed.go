// Package migrations embeds SQL migration files into the binary.
//
// The history database schema travels inside the executable, so a fresh
// deployment needs nothing beyond the binary and credentials.
package migrations

import (
	"embed"

	"github.com/emick/smartplug/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
