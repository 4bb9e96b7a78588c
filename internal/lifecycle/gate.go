// Package lifecycle coordinates startup readiness and graceful shutdown
// across the consumer loop, the bus client, and the channel adapters.
package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/yourorg/notification-gateway/internal/logger"
)

// DefaultGracePeriod is how long Shutdown waits for the loop to return
// before giving up and returning anyway.
const DefaultGracePeriod = 30 * time.Second

// Closer is anything the gate must release exactly once at shutdown.
type Closer interface {
	Close() error
}

// Gate exposes the two observable flags the health endpoint reads (ready,
// running) and drives the shutdown sequence: stop the loop, wait up to a
// bounded grace period, then close every registered resource exactly once.
type Gate struct {
	ready   atomic.Bool
	running atomic.Bool

	gracePeriod time.Duration
	log         logger.Logger

	loopDone chan struct{}
	closers  []Closer
}

func New(log logger.Logger) *Gate {
	return &Gate{gracePeriod: DefaultGracePeriod, log: log, loopDone: make(chan struct{})}
}

// WithGracePeriod overrides the default 30s shutdown grace period.
func (g *Gate) WithGracePeriod(d time.Duration) *Gate {
	g.gracePeriod = d
	return g
}

// Register adds a resource to be closed, in registration order, during
// Shutdown. Register everything before calling MarkReady.
func (g *Gate) Register(c Closer) {
	g.closers = append(g.closers, c)
}

// MarkReady flips ready=true and running=true. Call this immediately
// before the consumer loop enters its polling loop.
func (g *Gate) MarkReady() {
	g.running.Store(true)
	g.ready.Store(true)
}

// MarkLoopDone signals that the consumer loop goroutine has returned. The
// loop goroutine must call this exactly once, via defer, on every exit path.
func (g *Gate) MarkLoopDone() {
	select {
	case <-g.loopDone:
	default:
		close(g.loopDone)
	}
}

func (g *Gate) Ready() bool   { return g.ready.Load() }
func (g *Gate) Running() bool { return g.running.Load() }

// Shutdown runs the stop sequence: ready=false, running=false (the loop's
// own poll-timeout cadence notices this and returns), wait up to the grace
// period, then close every registered resource exactly once regardless of
// whether the loop returned in time.
func (g *Gate) Shutdown() {
	g.ready.Store(false)
	g.running.Store(false)

	select {
	case <-g.loopDone:
		g.log.Info("consumer loop exited cleanly", nil)
	case <-time.After(g.gracePeriod):
		g.log.Warn("shutdown grace period expired, closing resources anyway", map[string]any{
			"gracePeriodSeconds": g.gracePeriod.Seconds(),
		})
	}

	for _, c := range g.closers {
		if err := c.Close(); err != nil {
			g.log.Error("error closing resource during shutdown", err, nil)
		}
	}
}
