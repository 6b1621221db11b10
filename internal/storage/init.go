package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationPath = "migrations"

// runMigrations applies the embedded schema over a short-lived lib/pq
// connection, separate from the pgx pool used for queries.
func runMigrations(dsn string) error {
	const op = "storage.migrations"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.Up(db, migrationPath); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			log.Info().Msg("no migrations to apply")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info().Msg("database migrations applied")
	return nil
}
