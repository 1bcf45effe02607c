package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/scores"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	Migrate bool
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Run the game server: the websocket game endpoint, the highscore API and
the power meter subscription. SIGINT or SIGTERM shut it down gracefully;
running games are ended and their scores saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the postgres schema before serving")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, opts *serveOptions) error {
	if opts.Migrate && cfg.StoreDriver == config.StorePostgres {
		if err := scores.Migrate(ctx, cfg.Database.DSN()); err != nil {
			return err
		}
	}

	curveStore, err := loadCurves(cfg)
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	services := setupServices(cfg, curveStore, repo)
	server := setupServer(cfg, services)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return services.Ingest.Run(gctx)
	})

	g.Go(func() error {
		return services.Gateway.Start(gctx)
	})

	g.Go(func() error {
		log.Info().
			Str("addr", server.Addr).
			Str("store", cfg.StoreDriver).
			Str("nats_url", cfg.NATSURL).
			Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("powermatch shutdown complete")
	return nil
}
