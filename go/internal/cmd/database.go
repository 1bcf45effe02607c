package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/scores"
	"github.com/rs/zerolog/log"
)

// openStore connects the configured score store. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (scores.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := scores.OpenPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("connected to postgres")
		return scores.NewPostgresRepository(pool), pool.Close, nil

	case config.StoreSQLite:
		repo, err := scores.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite score store")
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close sqlite store")
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
