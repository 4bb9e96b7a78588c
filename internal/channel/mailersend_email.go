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

const mailersendEndpoint = "https://api.mailersend.com/v1/email"

// MailerSendEmailAdapter sends mail via the MailerSend Email API — a
// lighter-weight fallback behind sendgrid/ses for smaller volumes.
type MailerSendEmailAdapter struct {
	apiKey      string
	fromAddress string
	client      *rateLimitedClient
}

func NewMailerSendEmailAdapter(apiKey, fromAddress string, timeoutMs int, rps float64) *MailerSendEmailAdapter {
	return &MailerSendEmailAdapter{apiKey: apiKey, fromAddress: fromAddress, client: newHTTPClient(timeoutMs, rps)}
}

func (a *MailerSendEmailAdapter) ProviderName() string { return "mailersend" }
func (a *MailerSendEmailAdapter) ChannelType() string  { return "EMAIL" }
func (a *MailerSendEmailAdapter) IsConfigured() bool   { return strings.TrimSpace(a.apiKey) != "" }

func (a *MailerSendEmailAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasEmail() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no email address", profile.CustomerID))
	}

	payload, err := json.Marshal(map[string]any{
		"from": map[string]string{"email": a.fromAddress},
		"to":   []map[string]string{{"email": profile.Email, "name": profile.FullName()}},
		"subject": event.Subject,
		"text":    event.Body,
	})
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mailersendEndpoint, bytes.NewReader(payload))
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

func (a *MailerSendEmailAdapter) Close() error { return a.client.Close() }
