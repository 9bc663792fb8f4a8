// Package goosemigrations applies goose migrations from a filesystem.
package goosemigrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/dockdb/dockdb/migrations"
	"github.com/pressly/goose/v3"
)

type gooseMigrations struct {
	dialect goose.Dialect
	fs      fs.FS
}

// Postgres reads migrations from a folder on disk.
func Postgres(folder string) migrations.Migrations {
	return FS(goose.DialectPostgres, os.DirFS(folder))
}

// MySQL reads migrations from a folder on disk.
func MySQL(folder string) migrations.Migrations {
	return FS(goose.DialectMySQL, os.DirFS(folder))
}

// Embed reads migrations from an embedded filesystem.
func Embed(dialect goose.Dialect, fs embed.FS) migrations.Migrations {
	return FS(dialect, fs)
}

// FS reads migrations from any filesystem.
func FS(dialect goose.Dialect, fs fs.FS) migrations.Migrations {
	return gooseMigrations{
		dialect: dialect,
		fs:      fs,
	}
}

func (g gooseMigrations) Up(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(g.dialect, db, g.fs)
	if err != nil {
		return fmt.Errorf("create goose provider, %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("up goose migrations, %w", err)
	}

	for _, result := range results {
		if result.Error != nil {
			return fmt.Errorf("up migration %s, %w", result.Source.Path, result.Error)
		}
	}

	return nil
}

func (g gooseMigrations) Down(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(g.dialect, db, g.fs)
	if err != nil {
		return fmt.Errorf("create goose provider, %w", err)
	}

	results, err := provider.DownTo(ctx, 0)
	if err != nil {
		return fmt.Errorf("down goose migrations, %w", err)
	}

	for _, result := range results {
		if result.Error != nil {
			return fmt.Errorf("down migration %s, %w", result.Source.Path, result.Error)
		}
	}

	return nil
}
