package main

import (
	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/mcdev12/powermatch/go/internal/gateway"
	"github.com/mcdev12/powermatch/go/internal/health"
	"github.com/mcdev12/powermatch/go/internal/ingest"
	"github.com/mcdev12/powermatch/go/internal/scores"
	"github.com/mcdev12/powermatch/go/internal/session"
)

type Services struct {
	Ingest  *ingest.Adapter
	Scores  *scores.Service
	Gateway *gateway.Service
	Health  *health.Checker
}

func setupServices(cfg *config.Config, curveStore *curves.Store, repo scores.Store) *Services {
	// Wire up dependency injection chain
	// Repository → App → Service, with the ingest adapter feeding the gateway

	// Sensor feed
	adapterConfig := ingest.DefaultAdapterConfig()
	adapterConfig.URL = cfg.NATSURL
	adapterConfig.Subject = cfg.NATSSubject
	adapter := ingest.NewAdapter(ingest.NewBuffer(nil), adapterConfig)

	// Scores
	scoresApp := scores.NewApp(repo, nil)
	scoresService := scores.NewService(scoresApp)

	// Gateway
	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.ConnectionConfig.WriteTimeout = cfg.WSWriteTimeout
	gatewayConfig.ConnectionConfig.PingInterval = cfg.WSPingInterval
	gatewayConfig.SessionConfig = gateway.SessionConfig{
		Engine: session.Config{
			TickInterval:  cfg.TickInterval,
			SampleTimeout: cfg.SampleTimeout,
		},
		PersistTimeout: cfg.PersistTimeout,
	}
	gatewayService := gateway.NewService(gatewayConfig, curveStore, adapter, scoresApp)

	return &Services{
		Ingest:  adapter,
		Scores:  scoresService,
		Gateway: gatewayService,
		Health:  health.NewChecker(repo, adapter, gatewayService),
	}
}
