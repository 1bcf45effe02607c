package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// AdapterConfig holds configuration for the sensor feed subscription
type AdapterConfig struct {
	URL           string
	Subject       string // MQTT topic a/b/c arrives on NATS as a.b.c
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultAdapterConfig returns default sensor feed configuration
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		URL:           nats.DefaultURL,
		Subject:       "Strommessung_PowerMatch.events.rpc",
		Name:          "powermatch-ingest",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Adapter decodes meter notifications from NATS into the input buffer.
// One adapter exists per process; it is started with the server and
// stopped at shutdown.
type Adapter struct {
	buffer *Buffer
	config AdapterConfig
	clock  clockwork.Clock

	mu  sync.Mutex
	nc  *nats.Conn
	sub *nats.Subscription
}

// NewAdapter creates an adapter feeding buffer
func NewAdapter(buffer *Buffer, config AdapterConfig) *Adapter {
	return &Adapter{
		buffer: buffer,
		config: config,
		clock:  clockwork.NewRealClock(),
	}
}

// Start connects to NATS and subscribes to the meter subject. The
// connection retries in the background, so a broker that is not up yet
// does not keep the game server from starting.
func (a *Adapter) Start() error {
	opts := []nats.Option{
		nats.Name(a.config.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(a.config.MaxReconnects),
		nats.ReconnectWait(a.config.ReconnectWait),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(a.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := nc.Subscribe(a.config.Subject, a.HandleMessage)
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe to %s: %w", a.config.Subject, err)
	}

	a.mu.Lock()
	a.nc = nc
	a.sub = sub
	a.mu.Unlock()

	log.Info().
		Str("url", a.config.URL).
		Str("subject", a.config.Subject).
		Msg("sensor feed adapter started")

	return nil
}

// Run starts the adapter and keeps it subscribed until ctx is cancelled
func (a *Adapter) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return a.Stop()
}

// HandleMessage decodes one meter notification. Bad messages are logged
// and dropped; the subscription keeps running.
func (a *Adapter) HandleMessage(msg *nats.Msg) {
	watts, err := DecodeWatts(msg.Data)
	if err != nil {
		if errors.Is(err, ErrNoWattage) {
			log.Debug().Str("subject", msg.Subject).Msg("meter message without wattage")
			return
		}
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Int("bytes", len(msg.Data)).
			Msg("failed to decode meter message")
		return
	}

	a.buffer.Push(Sample{Watts: watts, ReceivedAt: a.clock.Now()})

	log.Debug().
		Float64("watts", watts).
		Int("queued", a.buffer.Len()).
		Msg("queued power sample")
}

// Connected reports whether the NATS connection is currently up
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nc != nil && a.nc.IsConnected()
}

// Queued returns the number of samples waiting in the buffer
func (a *Adapter) Queued() int {
	return a.buffer.Len()
}

// Next waits for the next queued sample; see Buffer.Next
func (a *Adapter) Next(ctx context.Context, timeout time.Duration) (Sample, bool, error) {
	return a.buffer.Next(ctx, timeout)
}

// Drain discards stale samples before a new game starts
func (a *Adapter) Drain() int {
	n := a.buffer.Drain()
	if n > 0 {
		log.Info().Int("cleared", n).Msg("cleared stale power samples")
	}
	return n
}

// Stop unsubscribes and closes the NATS connection
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	log.Info().Msg("stopping sensor feed adapter")

	var err error
	if a.sub != nil {
		if uerr := a.sub.Unsubscribe(); uerr != nil && !errors.Is(uerr, nats.ErrConnectionClosed) {
			err = fmt.Errorf("unsubscribe: %w", uerr)
		}
		a.sub = nil
	}
	if a.nc != nil {
		a.nc.Close()
		a.nc = nil
	}
	return err
}
