// Package retry implements the bounded-attempt, exponential-backoff
// wrapper every channel adapter call goes through, producing a three-way
// SUCCESS/FAILURE/SKIPPED result instead of a plain error return.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
)

// Operation is one adapter call, already bound to its event/profile
// arguments. It must never panic with anything the caller didn't already
// intend as a Go panic — Executor recovers unexpected panics the same way
// it recovers thrown errors, converting them into a FAILURE result.
type Operation func() domain.DeliveryResult

// Executor runs an Operation with retry, exponential backoff, and jitter.
type Executor struct {
	maxAttempts    int
	initialDelayMs int64
	backoffFactor  float64
	maxDelayMs     int64
	log            logger.Logger
	rng            *rand.Rand
}

// New builds an Executor from the retry section of the config.
func New(cfg config.RetryConfig, log logger.Logger) *Executor {
	return &Executor{
		maxAttempts:    cfg.MaxAttempts,
		initialDelayMs: cfg.InitialDelayMs,
		backoffFactor:  cfg.BackoffFactor,
		maxDelayMs:     cfg.MaxDelayMs,
		log:            log,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Execute runs operation up to maxAttempts times. SUCCESS and SKIPPED are
// both final on the first occurrence; FAILURE is retried with backoff
// until attempts are exhausted, at which point the last FAILURE result is
// returned. A panic inside operation is recovered and converted into a
// FAILURE result so it can still be retried — no error ever escapes
// Execute.
//
// description should be formatted "<provider>/<channel> notificationId=..."
// — it is both a log line and, on panic recovery, the only way to
// reconstruct which provider/channel the synthesized FAILURE belongs to.
func (e *Executor) Execute(ctx context.Context, operation Operation, description string) domain.DeliveryResult {
	var last domain.DeliveryResult

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result := e.callSafely(operation, description)

		switch result.Status {
		case domain.StatusSuccess:
			if attempt > 1 {
				e.log.Info("retry succeeded", map[string]any{
					"description": description, "attempt": attempt, "maxAttempts": e.maxAttempts,
				})
			}
			return result
		case domain.StatusSkipped:
			// Permanent condition — retrying cannot make a missing contact
			// field appear, so this is final on the first call.
			return result
		}

		last = result
		e.log.Warn("delivery attempt failed", map[string]any{
			"description": description, "attempt": attempt, "maxAttempts": e.maxAttempts,
			"error": result.ErrorMessage,
		})

		if attempt < e.maxAttempts {
			if cancelled := e.sleep(ctx, e.backoffDelay(attempt)); cancelled {
				e.log.Warn("retry sleep cancelled by shutdown", map[string]any{"description": description})
				return last
			}
		}
	}

	e.log.Error("all retry attempts exhausted", nil, map[string]any{
		"description": description, "maxAttempts": e.maxAttempts,
	})
	return last
}

func (e *Executor) callSafely(operation Operation, description string) (result domain.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			provider, channel := splitDescription(description)
			e.log.Error("unexpected panic during delivery", fmt.Errorf("%v", r), map[string]any{
				"description": description,
			})
			result = domain.NewFailure(provider, channel, fmt.Sprintf("Exception: %v", r), 0)
		}
	}()
	return operation()
}

// backoffDelay implements delay(n) = min(initial * factor^(n-1) + jitter, max)
// with jitter resampled uniformly in [0, initial) on every attempt.
func (e *Executor) backoffDelay(attempt int) time.Duration {
	base := float64(e.initialDelayMs) * math.Pow(e.backoffFactor, float64(attempt-1))
	jitter := e.rng.Float64() * float64(e.initialDelayMs)
	ms := math.Min(base+jitter, float64(e.maxDelayMs))
	return time.Duration(ms) * time.Millisecond
}

// sleep blocks for d or until ctx is cancelled, whichever comes first. It
// returns true if the sleep was cut short by cancellation — the lifecycle
// gate's shutdown signal — rather than completing naturally.
func (e *Executor) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-ctx.Done():
		return true
	}
}

func splitDescription(description string) (provider, channel string) {
	slash := strings.IndexByte(description, '/')
	if slash < 0 {
		return "unknown", "unknown"
	}
	provider = description[:slash]
	rest := description[slash+1:]
	if space := strings.IndexByte(rest, ' '); space >= 0 {
		channel = rest[:space]
	} else {
		channel = rest
	}
	return provider, channel
}
