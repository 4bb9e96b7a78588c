package retry

import (
	"context"
	"testing"

	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
)

func newTestExecutor(maxAttempts int) *Executor {
	return New(config.RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialDelayMs: 1,
		BackoffFactor:  2.0,
		MaxDelayMs:     5,
	}, logger.New("test"))
}

func TestExecute_SuccessOnFirstAttempt(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		return domain.NewSuccess("sendgrid", "EMAIL", "msg-1", 202)
	}, "sendgrid/EMAIL notificationId=n-1")

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestExecute_SkippedIsNeverRetried(t *testing.T) {
	e := newTestExecutor(5)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		return domain.NewSkipped("sendgrid", "EMAIL", "no email on file")
	}, "sendgrid/EMAIL notificationId=n-2")

	if calls != 1 {
		t.Fatalf("SKIPPED must short-circuit after exactly 1 call, got %d", calls)
	}
	if result.Status != domain.StatusSkipped {
		t.Fatalf("expected SKIPPED, got %v", result.Status)
	}
}

func TestExecute_RetriesOnFailureUpToMaxAttempts(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		return domain.NewFailure("sendgrid", "EMAIL", "503", 503)
	}, "sendgrid/EMAIL notificationId=n-3")

	if calls != 3 {
		t.Fatalf("expected exactly maxAttempts=3 calls, got %d", calls)
	}
	if result.Status != domain.StatusFailure {
		t.Fatalf("expected final FAILURE, got %v", result.Status)
	}
}

func TestExecute_SucceedsAfterFailures(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		if calls < 3 {
			return domain.NewFailure("sendgrid", "EMAIL", "timeout", 0)
		}
		return domain.NewSuccess("sendgrid", "EMAIL", "msg-9", 202)
	}, "sendgrid/EMAIL notificationId=n-4")

	if calls != 3 {
		t.Fatalf("expected 3 calls before success, got %d", calls)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestExecute_PanicIsAbsorbedAsFailure(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		if calls < 3 {
			panic("connection reset by peer")
		}
		return domain.NewSuccess("twilio", "SMS", "sid-1", 201)
	}, "twilio/SMS notificationId=n-5")

	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected eventual success, got %+v", result)
	}
}

func TestExecute_MaxAttemptsOneIsSingleCall(t *testing.T) {
	e := newTestExecutor(1)
	calls := 0
	result := e.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		return domain.NewFailure("twilio", "SMS", "down", 500)
	}, "twilio/SMS notificationId=n-6")

	if calls != 1 {
		t.Fatalf("maxAttempts=1 must call exactly once, got %d", calls)
	}
	if result.Status != domain.StatusFailure {
		t.Fatalf("expected FAILURE, got %v", result.Status)
	}
}

func TestExecute_CancellationDuringSleepStopsRetrying(t *testing.T) {
	e := New(config.RetryConfig{
		MaxAttempts:    5,
		InitialDelayMs: 1000,
		BackoffFactor:  1.0,
		MaxDelayMs:     1000,
	}, logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		cancel()
	}()

	result := e.Execute(ctx, func() domain.DeliveryResult {
		calls++
		return domain.NewFailure("twilio", "SMS", "down", 500)
	}, "twilio/SMS notificationId=n-7")

	if calls < 1 {
		t.Fatalf("expected at least one call before cancellation, got %d", calls)
	}
	if result.Status != domain.StatusFailure {
		t.Fatalf("expected last observed FAILURE, got %v", result.Status)
	}
}

func TestBackoffDelay_MonotonicAndCapped(t *testing.T) {
	e := New(config.RetryConfig{
		MaxAttempts:    10,
		InitialDelayMs: 100,
		BackoffFactor:  2.0,
		MaxDelayMs:     1000,
	}, logger.New("test"))

	prevBase := 0.0
	for attempt := 1; attempt <= 6; attempt++ {
		base := float64(e.initialDelayMs) * pow(e.backoffFactor, float64(attempt-1))
		if base < prevBase {
			t.Fatalf("base delay not monotonic at attempt %d: %v < %v", attempt, base, prevBase)
		}
		prevBase = base
		d := e.backoffDelay(attempt)
		if d.Milliseconds() > e.maxDelayMs {
			t.Fatalf("delay exceeded maxDelayMs at attempt %d: %v", attempt, d)
		}
	}
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0.0; i < exp; i++ {
		result *= base
	}
	return result
}
