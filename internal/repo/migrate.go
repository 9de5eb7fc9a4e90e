package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// DefaultMigrationsPath — каталог миграций относительно корня репозитория.
const DefaultMigrationsPath = "migrations"

// NewMigrator открывает миграции из каталога path для БД dsn.
// Close у результата закрывает и соединение с БД.
func NewMigrator(dsn, path string) (*migrate.Migrate, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("open migrations %s: %w", path, err)
	}
	return m, nil
}

// MigrateUp применяет все новые миграции. Актуальная схема — не ошибка.
func MigrateUp(dsn, path string) error {
	m, err := NewMigrator(dsn, path)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
