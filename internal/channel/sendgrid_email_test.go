package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/notification-gateway/internal/domain"
)

func testEvent() domain.NotificationEvent {
	return domain.NotificationEvent{
		NotificationID:   "n-1",
		NotificationType: domain.NotificationFraudAlert,
		AccountID:        42,
		Subject:          "subject",
		Body:             "body",
	}
}

func TestSendGridEmailAdapter_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Message-Id", "msg-123")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	a := NewSendGridEmailAdapter("key", "from@bank.com", "", srv.URL, 0, 0)
	profile := domain.CustomerProfile{CustomerID: 1, Email: "customer@example.com"}

	result := a.Send(context.Background(), testEvent(), profile)
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.ProviderMessageID != "msg-123" {
		t.Errorf("expected message id msg-123, got %q", result.ProviderMessageID)
	}
}

func TestSendGridEmailAdapter_FailureOnNon202(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	a := NewSendGridEmailAdapter("key", "from@bank.com", "", srv.URL, 0, 0)
	profile := domain.CustomerProfile{CustomerID: 1, Email: "customer@example.com"}

	result := a.Send(context.Background(), testEvent(), profile)
	if result.Status != domain.StatusFailure {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestSendGridEmailAdapter_SkippedWithoutEmail(t *testing.T) {
	a := NewSendGridEmailAdapter("key", "from@bank.com", "", "http://unused", 0, 0)
	profile := domain.CustomerProfile{CustomerID: 1}

	result := a.Send(context.Background(), testEvent(), profile)
	if result.Status != domain.StatusSkipped {
		t.Fatalf("expected skipped, got %+v", result)
	}
}

func TestSendGridEmailAdapter_IsConfigured(t *testing.T) {
	configured := NewSendGridEmailAdapter("key", "from@bank.com", "", "", 0, 0)
	if !configured.IsConfigured() {
		t.Error("expected configured adapter with non-blank api key")
	}
	unconfigured := NewSendGridEmailAdapter("", "from@bank.com", "", "", 0, 0)
	if unconfigured.IsConfigured() {
		t.Error("expected unconfigured adapter with blank api key")
	}
}
