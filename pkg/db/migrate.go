package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const migrateLogPrefix = "db:migrate"

// migrationLockID serializes concurrent migrators across instances.
const migrationLockID = 7_242_031

const createLedgerSQL = `CREATE TABLE IF NOT EXISTS uftp_schema_migrations (
    name       TEXT        PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies the migrations not yet recorded in uftp_schema_migrations, in order.
// Each migration runs in its own transaction together with its ledger row.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) error {
	slog.Info(fmt.Sprintf("%s - Checking %d migrations", migrateLogPrefix, len(migrations)))

	if _, err := pool.Exec(ctx, createLedgerSQL); err != nil {
		return fmt.Errorf("%s - failed to create migration ledger: %w", migrateLogPrefix, err)
	}

	applied := 0
	for _, m := range migrations {
		ran, err := applyMigration(ctx, pool, m)
		if err != nil {
			return err
		}
		if ran {
			applied++
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete (%d applied)", migrateLogPrefix, applied))
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("%s - begin %s: %w", migrateLogPrefix, m.Name, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return false, fmt.Errorf("%s - lock for %s: %w", migrateLogPrefix, m.Name, err)
	}

	var done bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM uftp_schema_migrations WHERE name = $1)`, m.Name).Scan(&done); err != nil {
		return false, fmt.Errorf("%s - check %s: %w", migrateLogPrefix, m.Name, err)
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.Up); err != nil {
		return false, fmt.Errorf("%s - migration %s failed: %w", migrateLogPrefix, m.Name, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO uftp_schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
		return false, fmt.Errorf("%s - record %s: %w", migrateLogPrefix, m.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%s - commit %s: %w", migrateLogPrefix, m.Name, err)
	}

	slog.Info(fmt.Sprintf("%s - Applied %s", migrateLogPrefix, m.Name))
	return true, nil
}

// AppliedMigrations returns the names recorded in the ledger, oldest first. A database that was
// never migrated has none.
func AppliedMigrations(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	var present bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'uftp_schema_migrations')`).Scan(&present)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to check ledger: %w", migrateLogPrefix, err)
	}
	if !present {
		return nil, nil
	}

	rows, err := pool.Query(ctx, `SELECT name FROM uftp_schema_migrations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list migrations: %w", migrateLogPrefix, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s - failed to scan migrations: %w", migrateLogPrefix, err)
	}
	return names, nil
}

// MigrationStatus writes one line per migration file in migrationPath: applied or pending.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string, w io.Writer) error {
	migrations, err := LoadMigrations(migrationPath)
	if err != nil {
		return err
	}
	applied, err := AppliedMigrations(ctx, pool)
	if err != nil {
		return err
	}
	writeStatus(w, migrations, applied)
	return nil
}

func writeStatus(w io.Writer, migrations []Migration, applied []string) {
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}
	pending := 0
	for _, m := range migrations {
		state := "pending"
		if done[m.Name] {
			state = "applied"
		} else {
			pending++
		}
		fmt.Fprintf(w, "%-8s %s\n", state, m.Name)
	}
	fmt.Fprintf(w, "%d of %d migrations applied, %d pending\n", len(migrations)-pending, len(migrations), pending)
}

// ErrNoRollback is returned when the last applied migration has no down script.
var ErrNoRollback = errors.New("migration has no down script")

// MigrationDown rolls back the most recently applied migration using the down script of its file
// in migrationPath. It returns the rolled back name, or "" when nothing is applied.
func MigrationDown(ctx context.Context, pool *pgxpool.Pool, migrationPath string) (string, error) {
	migrations, err := LoadMigrations(migrationPath)
	if err != nil {
		return "", err
	}
	applied, err := AppliedMigrations(ctx, pool)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", nil
	}

	last := applied[len(applied)-1]
	m, ok := findMigration(migrations, last)
	if !ok {
		return "", fmt.Errorf("%s - applied migration %s not found in %s", migrateLogPrefix, last, migrationPath)
	}
	if m.Down == "" {
		return "", fmt.Errorf("%s - %s: %w", migrateLogPrefix, last, ErrNoRollback)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("%s - begin rollback of %s: %w", migrateLogPrefix, last, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return "", fmt.Errorf("%s - lock for rollback of %s: %w", migrateLogPrefix, last, err)
	}
	if _, err := tx.Exec(ctx, m.Down); err != nil {
		return "", fmt.Errorf("%s - rollback of %s failed: %w", migrateLogPrefix, last, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM uftp_schema_migrations WHERE name = $1`, last); err != nil {
		return "", fmt.Errorf("%s - unrecord %s: %w", migrateLogPrefix, last, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("%s - commit rollback of %s: %w", migrateLogPrefix, last, err)
	}

	slog.Info(fmt.Sprintf("%s - Rolled back %s", migrateLogPrefix, last))
	return last, nil
}

func findMigration(migrations []Migration, name string) (Migration, bool) {
	for _, m := range migrations {
		if m.Name == name {
			return m, true
		}
	}
	return Migration{}, false
}
