package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Status is the health report served on /health
type Status struct {
	Healthy           bool     `json:"healthy"`
	DatabaseConnected bool     `json:"database_connected"`
	NATSConnected     bool     `json:"nats_connected"`
	QueuedSamples     int      `json:"queued_samples"`
	ActiveStreams     int      `json:"active_streams"`
	Errors            []string `json:"errors"`
}

// Pinger is a store that can check its connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// FeedStatus reports on the sensor feed
type FeedStatus interface {
	Connected() bool
	Queued() int
}

// StreamCounter reports running games
type StreamCounter interface {
	ActiveStreams() int
}

// Checker builds a Status from the server's dependencies
type Checker struct {
	store   Pinger
	feed    FeedStatus
	streams StreamCounter
	timeout time.Duration
}

// NewChecker creates a new health checker
func NewChecker(store Pinger, feed FeedStatus, streams StreamCounter) *Checker {
	return &Checker{
		store:   store,
		feed:    feed,
		streams: streams,
		timeout: 3 * time.Second,
	}
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	// Check database connection
	if err := c.store.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	// Check NATS connection
	status.NATSConnected = c.feed.Connected()
	if !status.NATSConnected {
		status.Healthy = false
		status.Errors = append(status.Errors, "NATS disconnected")
	}

	status.QueuedSamples = c.feed.Queued()
	status.ActiveStreams = c.streams.ActiveStreams()
	if status.ActiveStreams > 1 {
		status.Errors = append(status.Errors, fmt.Sprintf("%d games share the sensor feed", status.ActiveStreams))
	}

	return status
}

// ServeHTTP writes the status as JSON, with 503 when unhealthy
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	status := c.Check(ctx)
	if !status.Healthy {
		log.Warn().Strs("errors", status.Errors).Msg("health check failed")
	}

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
