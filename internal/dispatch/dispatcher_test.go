package dispatch

import (
	"context"
	"testing"

	"github.com/yourorg/notification-gateway/internal/channel"
	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
	"github.com/yourorg/notification-gateway/internal/retry"
)

// fakeAdapter is a scripted in-memory adapter for dispatcher tests.
type fakeAdapter struct {
	provider    string
	channelType string
	results     []domain.DeliveryResult // one per Send call; last one repeats
	calls       int
}

func (f *fakeAdapter) ProviderName() string { return f.provider }
func (f *fakeAdapter) ChannelType() string  { return f.channelType }
func (f *fakeAdapter) IsConfigured() bool   { return true }
func (f *fakeAdapter) Close() error         { return nil }

func (f *fakeAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	r.Provider = f.provider
	r.Channel = f.channelType
	return r
}

func newExecutor(maxAttempts int) *retry.Executor {
	return retry.New(config.RetryConfig{
		MaxAttempts: maxAttempts, InitialDelayMs: 1, BackoffFactor: 1.0, MaxDelayMs: 1,
	}, logger.New("test"))
}

func fixedEvent(ch domain.Channel, sev domain.Severity) domain.NotificationEvent {
	e := domain.NotificationEvent{NotificationID: "n-1", AccountID: 1}
	if ch != "" {
		e.Channel = &ch
	}
	if sev != "" {
		e.Severity = &sev
	}
	return e
}

func TestDispatch_S1_EmailOnlyOnLow(t *testing.T) {
	email := &fakeAdapter{provider: "p1", channelType: "EMAIL", results: []domain.DeliveryResult{domain.NewSuccess("p1", "EMAIL", "m1", 200)}}
	sms := &fakeAdapter{provider: "s1", channelType: "SMS", results: []domain.DeliveryResult{domain.NewSuccess("s1", "SMS", "m1", 200)}}

	d := New([]channel.Adapter{email}, []channel.Adapter{sms}, config.RoutingConfig{ForceBothOnSeverity: []string{"HIGH", "CRITICAL"}}, newExecutor(1), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelEmail, domain.SeverityLow), domain.CustomerProfile{Email: "a@b.com", Phone: "+1"})

	if len(results) != 1 || !results[0].IsSuccess() {
		t.Fatalf("expected single success, got %+v", results)
	}
	if sms.calls != 0 {
		t.Errorf("expected sms not called, got %d calls", sms.calls)
	}
}

func TestDispatch_S2_ForceBothOnHigh(t *testing.T) {
	email := &fakeAdapter{provider: "p1", channelType: "EMAIL", results: []domain.DeliveryResult{domain.NewSuccess("p1", "EMAIL", "m1", 200)}}
	sms := &fakeAdapter{provider: "s1", channelType: "SMS", results: []domain.DeliveryResult{domain.NewSuccess("s1", "SMS", "m1", 200)}}

	d := New([]channel.Adapter{email}, []channel.Adapter{sms}, config.RoutingConfig{ForceBothOnSeverity: []string{"HIGH", "CRITICAL"}}, newExecutor(1), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelEmail, domain.SeverityHigh), domain.CustomerProfile{Email: "a@b.com", Phone: "+1"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].Channel != "EMAIL" || results[1].Channel != "SMS" {
		t.Errorf("expected EMAIL before SMS, got %+v", results)
	}
}

func TestDispatch_S3_EmailFallback(t *testing.T) {
	primary := &fakeAdapter{provider: "primary", channelType: "EMAIL", results: []domain.DeliveryResult{domain.NewFailure("primary", "EMAIL", "down", 500)}}
	backup := &fakeAdapter{provider: "backup", channelType: "EMAIL", results: []domain.DeliveryResult{domain.NewSuccess("backup", "EMAIL", "m1", 200)}}

	d := New([]channel.Adapter{primary, backup}, nil, config.RoutingConfig{}, newExecutor(3), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelEmail, ""), domain.CustomerProfile{Email: "a@b.com"})

	if len(results) != 1 || results[0].Provider != "backup" || !results[0].IsSuccess() {
		t.Fatalf("expected single success from backup, got %+v", results)
	}
	if primary.calls != 3 {
		t.Errorf("expected primary called 3 times, got %d", primary.calls)
	}
	if backup.calls != 1 {
		t.Errorf("expected backup called 1 time, got %d", backup.calls)
	}
}

func TestDispatch_S4_SkippedIsTerminalWithinChannel(t *testing.T) {
	first := &fakeAdapter{provider: "first", channelType: "SMS", results: []domain.DeliveryResult{domain.NewSkipped("first", "SMS", "no phone")}}
	second := &fakeAdapter{provider: "second", channelType: "SMS", results: []domain.DeliveryResult{domain.NewSuccess("second", "SMS", "m1", 200)}}

	d := New(nil, []channel.Adapter{first, second}, config.RoutingConfig{}, newExecutor(3), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelSMS, ""), domain.CustomerProfile{})

	if len(results) != 1 || results[0].Status != domain.StatusSkipped || results[0].Provider != "first" {
		t.Fatalf("expected single skipped from first, got %+v", results)
	}
	if second.calls != 0 {
		t.Errorf("expected second sms adapter not invoked, got %d calls", second.calls)
	}
}

func TestDispatch_S5_ExhaustionBothChannelsFail(t *testing.T) {
	email := &fakeAdapter{provider: "e1", channelType: "EMAIL", results: []domain.DeliveryResult{domain.NewFailure("e1", "EMAIL", "down", 500)}}
	sms := &fakeAdapter{provider: "s1", channelType: "SMS", results: []domain.DeliveryResult{domain.NewFailure("s1", "SMS", "down", 500)}}

	d := New([]channel.Adapter{email}, []channel.Adapter{sms}, config.RoutingConfig{ForceBothOnSeverity: []string{"CRITICAL"}}, newExecutor(2), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelBoth, domain.SeverityCritical), domain.CustomerProfile{Email: "a@b.com", Phone: "+1"})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	for _, r := range results {
		if r.Status != domain.StatusFailure {
			t.Errorf("expected failure, got %+v", r)
		}
	}
}

func TestExecutor_S6_ExceptionAbsorption(t *testing.T) {
	executor := newExecutor(3)
	calls := 0
	desc := "p1/EMAIL notificationId=n-1"
	result := executor.Execute(context.Background(), func() domain.DeliveryResult {
		calls++
		if calls < 3 {
			panic("boom")
		}
		return domain.NewSuccess("p1", "EMAIL", "m1", 200)
	}, desc)

	if !result.IsSuccess() {
		t.Fatalf("expected eventual success, got %+v", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDispatch_NoChannelRequired(t *testing.T) {
	d := New(nil, nil, config.RoutingConfig{}, newExecutor(1), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent("", domain.SeverityLow), domain.CustomerProfile{})
	if len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestDispatch_ZeroAdaptersYieldsSkipped(t *testing.T) {
	d := New(nil, nil, config.RoutingConfig{}, newExecutor(1), logger.New("test"))
	results := d.Dispatch(context.Background(), fixedEvent(domain.ChannelEmail, ""), domain.CustomerProfile{Email: "a@b.com"})
	if len(results) != 1 || results[0].Status != domain.StatusSkipped || results[0].Provider != "none" {
		t.Fatalf("expected single skipped with provider none, got %+v", results)
	}
}
