package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every embedded migration that has not run yet, each in its
// own transaction, and returns the versions it applied.
func (d *DB) Migrate(ctx context.Context) ([]string, error) {
	if _, err := d.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var applied []string
	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return applied, err
		}
		ran, err := d.applyMigration(ctx, name, string(body))
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", name, err)
		}
		if ran {
			slog.Info("migration applied", "version", name)
			applied = append(applied, name)
		}
	}
	return applied, nil
}

func (d *DB) applyMigration(ctx context.Context, version, body string) (bool, error) {
	ran := false
	err := d.WithTx(ctx, func(ctx context.Context, q Querier) error {
		// serialize concurrent migrators
		if _, err := q.Exec(ctx, `LOCK TABLE schema_migrations IN EXCLUSIVE MODE`); err != nil {
			return err
		}
		var exists bool
		if err := q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := q.Exec(ctx, body); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return err
		}
		ran = true
		return nil
	})
	return ran, err
}
