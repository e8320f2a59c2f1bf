package resource

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"service-runtime/logging"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate leva o schema até a última versão embutida. A versão aplicada fica
// em schema_migrations; sem mudanças pendentes não faz nada.
func Migrate(db *sql.DB, logger logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Errorf("failed to create postgres driver instance: %v", err)
		return fmt.Errorf("failed to create postgres driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No new migrations found. Skipping...")
			return nil
		}

		var dirtyErr migrate.ErrDirty
		if errors.As(err, &dirtyErr) {
			logger.Errorf("Migration failed with dirty version %d", dirtyErr.Version)
			return fmt.Errorf("migration failed: dirty database version %d", dirtyErr.Version)
		}

		logger.Errorf("Migration failed: %v", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		logger.Infof("Database migrated to version %d", v)
	}
	return nil
}
