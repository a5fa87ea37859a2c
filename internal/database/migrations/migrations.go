package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema change, registered from init functions.
var Migrations = migrate.NewMigrations()
