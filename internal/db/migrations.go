// Package db applies the warehouse's SQL schema migrations, tracking
// which versions have already run the same way the teacher's migration
// runner does: a schema_migrations table, one row per applied file.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// schemaMigrationsDDL creates the bookkeeping table, one row per applied
// migration file, keyed on filename.
const schemaMigrationsDDL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		id SERIAL PRIMARY KEY,
		version VARCHAR(255) NOT NULL UNIQUE,
		applied_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
`

// RunMigrations opens dsn and applies every *.up.sql file under
// migrationsPath that isn't already recorded in schema_migrations, in
// lexical order, each inside its own transaction.
func RunMigrations(dsn, migrationsPath string) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(schemaMigrationsDDL); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(conn)
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}

	pending, err := pendingMigrations(migrationsPath, applied)
	if err != nil {
		return fmt.Errorf("reading migration files: %w", err)
	}

	for _, version := range pending {
		sqlContent, err := os.ReadFile(filepath.Join(migrationsPath, version))
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", version, err)
		}
		if err := applyMigration(conn, version, string(sqlContent)); err != nil {
			return fmt.Errorf("applying migration %s: %w", version, err)
		}
	}

	return nil
}

// appliedVersions returns the set of migration filenames already recorded
// in schema_migrations.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// pendingMigrations lists the *.up.sql filenames under migrationsPath, in
// lexical order, that aren't already in applied.
func pendingMigrations(migrationsPath string, applied map[string]bool) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, match := range matches {
		version := filepath.Base(match)
		if !strings.HasSuffix(version, ".up.sql") || applied[version] {
			continue
		}
		pending = append(pending, version)
	}
	sort.Strings(pending)
	return pending, nil
}

// applyMigration runs sqlContent and records version, both inside a single
// transaction so a failed migration never leaves a partial schema change
// recorded as applied.
func applyMigration(db *sql.DB, version string, sqlContent string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sqlContent); err != nil {
		return fmt.Errorf("executing migration sql: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}
