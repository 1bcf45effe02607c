package main

import (
	"fmt"
	"os"

	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/rs/zerolog/log"
)

// loadConfig reads dotenv files and the environment, then configures logging
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.SetupLogging(cfg, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCurves returns the built-in curves unless CURVES_PATH points elsewhere
func loadCurves(cfg *config.Config) (*curves.Store, error) {
	if cfg.CurvesPath == "" {
		store, err := curves.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in curves: %w", err)
		}
		return store, nil
	}

	store, err := curves.LoadFile(cfg.CurvesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load curves: %w", err)
	}
	log.Info().Str("path", cfg.CurvesPath).Msg("loaded curves from file")
	return store, nil
}
