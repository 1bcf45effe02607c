package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sample is one wattage reading from the sensor feed
type Sample struct {
	Watts      float64
	ReceivedAt time.Time
}

// Buffer is an unbounded FIFO of samples with a single consumer.
//
// Producers never block. The consumer waits with Next, which is woken by a
// signal channel rather than by polling, so the wait is interruptible by
// both the timeout and the caller's context.
//
// There is one Buffer per process. Two sessions streaming at the same time
// would split the readings between them.
type Buffer struct {
	mu      sync.Mutex
	samples []Sample
	signal  chan struct{} // buffered, size 1; coalesces wakeups
	clock   clockwork.Clock
}

// NewBuffer creates an empty buffer. A nil clock means the real clock.
func NewBuffer(clock clockwork.Clock) *Buffer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Buffer{
		samples: make([]Sample, 0, 64),
		signal:  make(chan struct{}, 1),
		clock:   clock,
	}
}

// Push appends a sample and wakes the consumer
func (b *Buffer) Push(s Sample) {
	b.mu.Lock()
	b.samples = append(b.samples, s)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// Next returns the oldest queued sample, waiting up to timeout for one to
// arrive. ok=false with a nil error means the timeout elapsed with no new
// sample. A cancelled context returns ctx.Err().
func (b *Buffer) Next(ctx context.Context, timeout time.Duration) (Sample, bool, error) {
	if s, ok := b.pop(); ok {
		return s, true, nil
	}

	timer := b.clock.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Sample{}, false, ctx.Err()
		case <-timer.Chan():
			// a push may have landed right at the deadline
			if s, ok := b.pop(); ok {
				return s, true, nil
			}
			return Sample{}, false, nil
		case <-b.signal:
			if s, ok := b.pop(); ok {
				return s, true, nil
			}
			// stale wakeup left behind by Drain
		}
	}
}

// Drain discards every queued sample and returns how many were dropped
func (b *Buffer) Drain() int {
	b.mu.Lock()
	n := len(b.samples)
	clear(b.samples)
	b.samples = b.samples[:0]
	b.mu.Unlock()

	select {
	case <-b.signal:
	default:
	}
	return n
}

// Len returns the number of queued samples
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

func (b *Buffer) pop() (Sample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) == 0 {
		return Sample{}, false
	}

	s := b.samples[0]
	if len(b.samples) == 1 {
		b.samples = b.samples[:0]
	} else {
		b.samples = b.samples[1:]
	}
	return s, true
}
