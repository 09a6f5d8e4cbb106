package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations runs database migrations
func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		// Handle dirty database state by forcing to the previous clean version
		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			forceVersion := dirtyErr.Version - 1
			if forceVersion < 0 {
				forceVersion = 0
			}

			if ferr := m.Force(forceVersion); ferr != nil {
				return fmt.Errorf("force clean migration version %d: %w", forceVersion, ferr)
			}

			// Retry migrations after cleaning dirty state
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("rerun migrations after dirty state: %w", err)
			}

			return nil
		}

		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
