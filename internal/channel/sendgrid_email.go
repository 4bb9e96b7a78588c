package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yourorg/notification-gateway/internal/domain"
)

const sendgridDefaultEndpoint = "https://api.sendgrid.com/v3/mail/send"

// SendGridEmailAdapter sends mail via the SendGrid v3 Mail Send API.
// Required credential: apiKey (an API key with "Mail Send" permission).
type SendGridEmailAdapter struct {
	apiKey      string
	fromAddress string
	replyTo     string
	endpoint    string
	client      *rateLimitedClient
}

// NewSendGridEmailAdapter builds the adapter. endpoint defaults to the
// production SendGrid URL when empty (tests point it at an httptest server).
func NewSendGridEmailAdapter(apiKey, fromAddress, replyTo, endpoint string, timeoutMs int, rps float64) *SendGridEmailAdapter {
	if endpoint == "" {
		endpoint = sendgridDefaultEndpoint
	}
	return &SendGridEmailAdapter{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		replyTo:     replyTo,
		endpoint:    endpoint,
		client:      newHTTPClient(timeoutMs, rps),
	}
}

func (a *SendGridEmailAdapter) ProviderName() string { return "sendgrid" }
func (a *SendGridEmailAdapter) ChannelType() string  { return "EMAIL" }
func (a *SendGridEmailAdapter) IsConfigured() bool   { return strings.TrimSpace(a.apiKey) != "" }

func (a *SendGridEmailAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasEmail() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no email address", profile.CustomerID))
	}

	payload, err := a.buildPayload(event, profile)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		msgID := resp.Header.Get("X-Message-Id")
		if msgID == "" {
			msgID = "unknown"
		}
		return domain.NewSuccess(a.ProviderName(), a.ChannelType(), msgID, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	return domain.NewFailure(a.ProviderName(), a.ChannelType(),
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
}

func (a *SendGridEmailAdapter) buildPayload(event domain.NotificationEvent, profile domain.CustomerProfile) ([]byte, error) {
	root := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": profile.Email, "name": profile.FullName()}}},
		},
		"from":    map[string]string{"email": a.fromAddress, "name": "Notification Gateway"},
		"subject": event.Subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": event.Body},
		},
		"custom_args": map[string]string{
			"notificationId":   event.NotificationID,
			"notificationType": string(event.NotificationType),
			"accountId":        fmt.Sprintf("%d", event.AccountID),
		},
	}
	if strings.TrimSpace(a.replyTo) != "" {
		root["reply_to"] = map[string]string{"email": a.replyTo}
	}
	return json.Marshal(root)
}

func (a *SendGridEmailAdapter) Close() error { return a.client.Close() }
