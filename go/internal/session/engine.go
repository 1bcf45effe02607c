package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/mcdev12/powermatch/go/internal/ingest"
	"github.com/mcdev12/powermatch/go/internal/scoring"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRun is returned when Run is called on an engine that has
// already played its game
var ErrAlreadyRun = errors.New("session engine already run")

// SampleSource delivers wattage readings to the engine.
// ingest.Buffer is the production implementation.
type SampleSource interface {
	Next(ctx context.Context, timeout time.Duration) (ingest.Sample, bool, error)
}

// Config holds the pacing settings of the tick loop
type Config struct {
	TickInterval  time.Duration
	SampleTimeout time.Duration

	// Clock is the interface we use for time operations.
	// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
	Clock clockwork.Clock
}

// DefaultConfig returns one tick per second with a one second sample wait
func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		SampleTimeout: time.Second,
		Clock:         clockwork.NewRealClock(),
	}
}

// TickResult is the outcome of one tick
type TickResult struct {
	TickNumber int
	Actual     float64
	Target     float64
	Tolerance  float64
	TickScore  float64
	TotalScore float64
	StartedAt  time.Time
}

// Engine plays one game: a fixed number of ticks, one per TickInterval,
// each scored against the target curve. An engine runs once.
type Engine struct {
	target     curves.Curve
	tolerance  curves.Curve
	difficulty curves.Difficulty
	source     SampleSource
	config     Config

	mu      sync.Mutex
	started bool
	total   float64
	ticks   int
}

// NewEngine creates an engine for the given curves
func NewEngine(target, tolerance curves.Curve, difficulty curves.Difficulty, source SampleSource, config Config) (*Engine, error) {
	if len(target) == 0 {
		return nil, errors.New("target curve is empty")
	}
	if len(target) != len(tolerance) {
		return nil, fmt.Errorf("curve length mismatch: target %d, tolerance %d", len(target), len(tolerance))
	}
	if source == nil {
		return nil, errors.New("sample source is required")
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Engine{
		target:     target,
		tolerance:  tolerance,
		difficulty: difficulty,
		source:     source,
		config:     config,
	}, nil
}

// Run plays every tick in order, calling emit as soon as each tick is
// scored. It returns nil after the last tick's pacing delay, the emit error
// if emit fails, or the context error if ctx is cancelled while waiting.
//
// A tick with no new reading reuses the last one (0 before any reading).
// Ticks that overrun the interval are not caught up; the next tick starts
// immediately and the tick count never changes.
func (e *Engine) Run(ctx context.Context, emit func(TickResult) error) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyRun
	}
	e.started = true
	e.mu.Unlock()

	clock := e.config.Clock
	lastKnown := 0.0

	for tick := 0; tick < len(e.target); tick++ {
		tickStart := clock.Now()

		sample, ok, err := e.source.Next(ctx, e.config.SampleTimeout)
		if err != nil {
			return fmt.Errorf("wait for sample at tick %d: %w", tick, err)
		}
		actual := lastKnown
		if ok {
			actual = sample.Watts
			lastKnown = actual
		}

		target := e.target[tick]
		tolerance := e.tolerance[tick]
		tickScore := scoring.Tick(actual, target, tolerance, e.difficulty)

		e.mu.Lock()
		e.total = scoring.Accumulate(e.total, tickScore)
		e.ticks = tick + 1
		total := e.total
		e.mu.Unlock()

		log.Debug().
			Int("tick", tick).
			Bool("fresh_sample", ok).
			Float64("actual", actual).
			Float64("target", target).
			Float64("tick_score", tickScore).
			Float64("total_score", total).
			Msg("tick scored")

		result := TickResult{
			TickNumber: tick,
			Actual:     actual,
			Target:     target,
			Tolerance:  tolerance,
			TickScore:  tickScore,
			TotalScore: total,
			StartedAt:  tickStart,
		}
		if err := emit(result); err != nil {
			return fmt.Errorf("emit tick %d: %w", tick, err)
		}

		if err := e.pace(ctx, tickStart); err != nil {
			return fmt.Errorf("pace tick %d: %w", tick, err)
		}
	}

	return nil
}

// pace waits out the rest of the tick interval measured from tickStart
func (e *Engine) pace(ctx context.Context, tickStart time.Time) error {
	remaining := e.config.TickInterval - e.config.Clock.Since(tickStart)
	if remaining <= 0 {
		return nil
	}

	timer := e.config.Clock.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// Total returns the running total score
func (e *Engine) Total() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// TicksPlayed returns how many ticks have been scored
func (e *Engine) TicksPlayed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}
