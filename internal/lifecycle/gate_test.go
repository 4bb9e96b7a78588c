package lifecycle

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourorg/notification-gateway/internal/logger"
)

type fakeCloser struct {
	closed atomic.Bool
	err    error
}

func (f *fakeCloser) Close() error {
	f.closed.Store(true)
	return f.err
}

func TestGate_NotReadyUntilMarkReady(t *testing.T) {
	g := New(logger.New("test"))
	if g.Ready() || g.Running() {
		t.Fatal("expected gate to start not-ready and not-running")
	}
	g.MarkReady()
	if !g.Ready() || !g.Running() {
		t.Fatal("expected ready and running after MarkReady")
	}
}

func TestGate_ShutdownClosesAllRegisteredResources(t *testing.T) {
	g := New(logger.New("test")).WithGracePeriod(50 * time.Millisecond)
	a := &fakeCloser{}
	b := &fakeCloser{err: errors.New("boom")}
	g.Register(a)
	g.Register(b)
	g.MarkReady()
	g.MarkLoopDone()

	g.Shutdown()

	if !a.closed.Load() || !b.closed.Load() {
		t.Fatal("expected all registered closers to be closed, even when one errors")
	}
	if g.Ready() || g.Running() {
		t.Fatal("expected ready and running to be false after shutdown")
	}
}

func TestGate_ShutdownReturnsAfterGracePeriodWhenLoopNeverExits(t *testing.T) {
	g := New(logger.New("test")).WithGracePeriod(20 * time.Millisecond)
	a := &fakeCloser{}
	g.Register(a)
	g.MarkReady()

	start := time.Now()
	g.Shutdown()
	elapsed := time.Since(start)

	if elapsed < 20*time.Millisecond {
		t.Fatalf("expected shutdown to wait out the grace period, took %s", elapsed)
	}
	if !a.closed.Load() {
		t.Fatal("expected closer to run even though the loop never signaled done")
	}
}

func TestGate_MarkLoopDoneIsIdempotent(t *testing.T) {
	g := New(logger.New("test"))
	g.MarkLoopDone()
	g.MarkLoopDone()
}
