// Command migrate applies the fact store schema in migrations/ to Postgres.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/liamcoop/linkrules/internal/logger"
)

func main() {
	if err := logger.Setup(logger.ConfigFromEnv()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(os.Args[1:]); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	databaseURL := fs.String("database", os.Getenv("DATABASE_URL"), "Database URL (default $DATABASE_URL)")
	migrationsPath := fs.String("path", "migrations", "Path to migrations directory")
	command := fs.String("command", "up", "Migration command: up, down, version, force")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *databaseURL == "" {
		return errors.New("database URL is required. Use -database flag or DATABASE_URL environment variable")
	}

	logger.Info("connecting to database", "migrations", *migrationsPath)

	m, err := migrate.New("file://"+*migrationsPath, *databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	switch *command {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to run, database is up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations completed")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		logger.Info("rollback completed")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Info("current version", "version", version, "dirty", dirty)

	case "force":
		if fs.NArg() < 1 {
			return errors.New("force requires a version number: -command force <version>")
		}
		version, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("invalid version number: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		logger.Info("forced version", "version", version)

	default:
		return fmt.Errorf("unknown command: %s (use: up, down, version, force)", *command)
	}

	return nil
}
