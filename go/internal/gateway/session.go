package gateway

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/mcdev12/powermatch/go/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the protocol phase of a game session
type State int32

const (
	StateAwaitingInit State = iota
	StateAwaitingStart
	StateStreaming
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateAwaitingInit:
		return "awaiting_init"
	case StateAwaitingStart:
		return "awaiting_start"
	case StateStreaming:
		return "streaming"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Transport is one client connection. Messages is closed when the client
// goes away.
type Transport interface {
	Send(v any) error
	Messages() <-chan ClientMessage
}

// ResultSink stores finished games
type ResultSink interface {
	Persist(ctx context.Context, record models.ScoreRecord) error
}

// CurveLookup returns the target and tolerance curves for a difficulty
type CurveLookup interface {
	Lookup(d curves.Difficulty) (target, tolerance curves.Curve)
}

// InputFeed is the live sensor input shared by all sessions
type InputFeed interface {
	session.SampleSource
	Drain() int
}

// SessionConfig holds timing for game sessions
type SessionConfig struct {
	Engine         session.Config
	PersistTimeout time.Duration
}

// DefaultSessionConfig returns default session timing
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Engine:         session.DefaultConfig(),
		PersistTimeout: 5 * time.Second,
	}
}

// SessionHandler creates and runs game sessions over client transports
type SessionHandler struct {
	curves CurveLookup
	feed   InputFeed
	sink   ResultSink
	config SessionConfig

	// Seed returns the per-session seed. It only labels the game.
	Seed func() int

	mu      sync.Mutex
	streams int
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(lookup CurveLookup, feed InputFeed, sink ResultSink, config SessionConfig) *SessionHandler {
	if config.PersistTimeout <= 0 {
		config.PersistTimeout = DefaultSessionConfig().PersistTimeout
	}
	return &SessionHandler{
		curves: lookup,
		feed:   feed,
		sink:   sink,
		config: config,
		Seed:   func() int { return 1000 + rand.IntN(9000) },
	}
}

// ActiveStreams returns the number of sessions currently streaming ticks
func (h *SessionHandler) ActiveStreams() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.streams
}

func (h *SessionHandler) beginStream() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams++
	return h.streams
}

func (h *SessionHandler) endStream() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams--
}

// Session is one player's game on one connection
type Session struct {
	ID         uuid.UUID
	Name       string
	Difficulty curves.Difficulty
	Seed       int

	handler   *SessionHandler
	transport Transport
	state     atomic.Int32
	logger    zerolog.Logger

	mu    sync.Mutex
	total float64
	ticks int
}

// NewSession creates a session for a newly accepted connection
func (h *SessionHandler) NewSession(name string, difficulty curves.Difficulty, transport Transport) *Session {
	s := &Session{
		ID:         uuid.New(),
		Name:       name,
		Difficulty: difficulty,
		Seed:       h.Seed(),
		handler:    h,
		transport:  transport,
	}
	s.logger = log.With().
		Str("session_id", s.ID.String()).
		Str("player", name).
		Str("difficulty", string(difficulty)).
		Logger()
	return s
}

// State returns the current protocol phase
func (s *Session) State() State {
	return State(s.state.Load())
}

// Total returns the final score once the session has ended
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// TicksPlayed returns how many ticks were streamed
func (s *Session) TicksPlayed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Session) setState(state State) {
	prev := State(s.state.Swap(int32(state)))
	if prev == state {
		return
	}
	s.logger.Debug().
		Str("from", prev.String()).
		Str("to", state.String()).
		Msg("session state changed")
}

// Run drives the session through init, start, the tick stream and the end
// message. It returns once the session has ended. A score is persisted only
// if streaming began.
func (s *Session) Run(ctx context.Context) {
	defer s.setState(StateEnded)

	target, tolerance := s.handler.curves.Lookup(s.Difficulty)

	err := s.transport.Send(InitMessage{
		Type:           MessageTypeInit,
		TargetCurve:    target,
		ToleranceCurve: tolerance,
		Difficulty:     string(s.Difficulty),
		Seed:           s.Seed,
		Duration:       len(target),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to send init, ending session")
		return
	}
	s.setState(StateAwaitingStart)
	s.logger.Info().Int("seed", s.Seed).Msg("game initialised, waiting for start")

	if !s.awaitStart(ctx) {
		s.logger.Info().Msg("session ended before start, nothing to save")
		return
	}

	s.setState(StateStreaming)
	total, ticks := s.stream(ctx, target, tolerance)

	s.mu.Lock()
	s.total = total
	s.ticks = ticks
	s.mu.Unlock()

	s.setState(StateEnded)
	s.finish(ctx, total)
}

// awaitStart blocks until the client sends start. It reports false if the
// client disconnects or ctx is cancelled first.
func (s *Session) awaitStart(ctx context.Context) bool {
	messages := s.transport.Messages()
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				s.logger.Info().Msg("client disconnected while waiting for start")
				return false
			}
			if msg.Type == MessageTypeStart {
				s.logger.Info().Msg("start received")
				return true
			}
			s.logger.Warn().Str("type", string(msg.Type)).Msg("ignoring unexpected message while waiting for start")
		}
	}
}

// stream plays the engine against the live feed, sending one tick message
// per tick. A disconnect or failed send stops the stream early.
func (s *Session) stream(ctx context.Context, target, tolerance curves.Curve) (float64, int) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.watchDisconnect(streamCtx, cancel)

	if active := s.handler.beginStream(); active > 1 {
		s.logger.Warn().
			Int("active_streams", active).
			Msg("another game is already streaming; both share the same sensor feed")
	}
	defer s.handler.endStream()

	if dropped := s.handler.feed.Drain(); dropped > 0 {
		s.logger.Debug().Int("dropped", dropped).Msg("discarded stale samples")
	}

	engine, err := session.NewEngine(target, tolerance, s.Difficulty, s.handler.feed, s.handler.config.Engine)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create game engine")
		return 0, 0
	}

	err = engine.Run(streamCtx, func(r session.TickResult) error {
		return s.transport.Send(TickMessage{
			Type:       MessageTypeTick,
			TickNumber: r.TickNumber,
			Actual:     r.Actual,
			TotalScore: r.TotalScore,
		})
	})
	switch {
	case err == nil:
		s.logger.Info().Float64("score", engine.Total()).Msg("game completed")
	case errors.Is(err, context.Canceled):
		s.logger.Info().
			Int("ticks", engine.TicksPlayed()).
			Msg("game interrupted")
	default:
		s.logger.Warn().
			Err(err).
			Int("ticks", engine.TicksPlayed()).
			Msg("game stream aborted")
	}

	return engine.Total(), engine.TicksPlayed()
}

// watchDisconnect cancels the stream when the client goes away. Messages
// received while streaming are ignored.
func (s *Session) watchDisconnect(ctx context.Context, cancel context.CancelFunc) {
	messages := s.transport.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				s.logger.Info().Msg("client disconnected during game")
				cancel()
				return
			}
			s.logger.Debug().Str("type", string(msg.Type)).Msg("ignoring message during game")
		}
	}
}

// finish sends the end message and stores the result. Neither failure is
// reported to the caller.
func (s *Session) finish(ctx context.Context, total float64) {
	if err := s.transport.Send(EndMessage{Type: MessageTypeEnd, Score: total}); err != nil {
		s.logger.Debug().Err(err).Msg("could not deliver end message")
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.handler.config.PersistTimeout)
	defer cancel()

	err := s.handler.sink.Persist(persistCtx, models.ScoreRecord{
		ID:         s.ID,
		Name:       s.Name,
		Score:      total,
		Difficulty: string(s.Difficulty),
		Seed:       s.Seed,
	})
	if err != nil {
		s.logger.Error().Err(err).Float64("score", total).Msg("failed to save score")
	}
}
