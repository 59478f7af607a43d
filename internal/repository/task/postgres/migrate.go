package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func (s *Storage) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(s.connString))
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

func (s *Storage) Migrate() error {
	logger.Info("Repository: applying migrations")

	m, err := s.newMigrator()
	if err != nil {
		logger.Error("Repository: migrator init failed", err)
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: migration failed", err)
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (s *Storage) Down() error {
	logger.Info("Repository: rolling back migrations")

	m, err := s.newMigrator()
	if err != nil {
		logger.Error("Repository: migrator init failed", err)
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: rollback failed", err)
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	logger.Info("Repository: migrations rolled back")
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Repository: closing migration source", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Repository: closing migration database", zap.Error(dbErr))
	}
}

// migrateURL switches a postgres:// URL to the scheme registered by the pgx/v5 migrate driver.
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}
