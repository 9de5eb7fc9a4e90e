// loanworker-migrate — применяет миграции схемы task_runs.
//
//	loanworker-migrate -command up
//	loanworker-migrate -command down -steps 1
//	loanworker-migrate -command force -version 1
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/telemetry"
)

func main() {
	dsn := flag.String("database", repo.DSN(), "PostgreSQL connection string")
	path := flag.String("path", repo.DefaultMigrationsPath, "Migrations directory")
	command := flag.String("command", "up", "up | down | version | force")
	steps := flag.Int("steps", 0, "Steps for down (0 = all)")
	version := flag.Int("version", -1, "Version for force")
	flag.Parse()

	logger := telemetry.SetupLogger()

	m, err := repo.NewMigrator(*dsn, *path)
	if err != nil {
		logger.Error("failed to open migrations", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *command {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return
		}
		if verr != nil {
			logger.Error("failed to read version", "error", verr)
			os.Exit(1)
		}
		logger.Info("current version", "version", v, "dirty", dirty)
		return
	case "force":
		if *version < 0 {
			logger.Error("force requires -version")
			os.Exit(1)
		}
		err = m.Force(*version)
	default:
		logger.Error("unknown command", "command", *command)
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no change")
		return
	}
	if err != nil {
		logger.Error("migration failed", "command", *command, "error", err)
		os.Exit(1)
	}
	logger.Info("migration complete", "command", *command)
}
