package scores

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/mcdev12/powermatch/go/internal/sqlutil"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
)

//go:embed schema/postgres.sql
var postgresSchema string

// Migrate applies the Postgres schema in a single transaction
func Migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	err = sqlutil.Run(ctx, db, func(tx *sql.Tx) error {
		return sqlutil.ExecScript(ctx, tx, postgresSchema)
	})
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Msg("postgres schema applied")
	return nil
}
