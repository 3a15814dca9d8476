package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// Migrate applies the embedded migrations that have not run yet, each in its
// own transaction, in file name order.
func Migrate(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, migrations, "migrations")
}

func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ensuring schema_migrations: %w", err)
	}

	files, err := pending(fsys, dir)
	if err != nil {
		return err
	}

	for _, name := range files {
		var applied bool

		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}

		if applied {
			continue
		}

		if err := apply(ctx, db, fsys, path.Join(dir, name), name); err != nil {
			return err
		}
	}

	return nil
}

func pending(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var files []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}

		files = append(files, e.Name())
	}

	sort.Strings(files)

	return files, nil
}

func apply(ctx context.Context, db *sql.DB, fsys fs.FS, file, version string) error {
	contents, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		return fmt.Errorf("executing migration %s: %w", version, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("recording migration %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %s: %w", version, err)
	}

	return nil
}
