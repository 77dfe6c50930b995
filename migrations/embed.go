// Package migrations compiles the schema files into the binary so a
// deployment needs nothing on disk besides the database itself.
package migrations

import (
	"embed"

	"github.com/jmcavoy/inventory-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Hand the embedded files to the database package; cmd/inventoryd
	// blank-imports this package to trigger the registration.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
