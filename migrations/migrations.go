// Package migrations defines the optional schema migration step applied
// after a database container is provisioned.
package migrations

import (
	"context"
	"database/sql"
)

type Migrations interface {
	Up(ctx context.Context, db *sql.DB) error
}

// Nil applies no migrations.
var Nil nilMigrations

type nilMigrations struct{}

func (nilMigrations) Up(context.Context, *sql.DB) error {
	return nil
}
