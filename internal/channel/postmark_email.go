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

const postmarkEndpoint = "https://api.postmarkapp.com/email"

// PostmarkEmailAdapter sends mail via the Postmark transactional email API.
type PostmarkEmailAdapter struct {
	serverToken   string
	fromAddress   string
	messageStream string
	client        *rateLimitedClient
}

func NewPostmarkEmailAdapter(serverToken, fromAddress, messageStream string, timeoutMs int, rps float64) *PostmarkEmailAdapter {
	if messageStream == "" {
		messageStream = "outbound"
	}
	return &PostmarkEmailAdapter{
		serverToken: serverToken, fromAddress: fromAddress,
		messageStream: messageStream, client: newHTTPClient(timeoutMs, rps),
	}
}

func (a *PostmarkEmailAdapter) ProviderName() string { return "postmark" }
func (a *PostmarkEmailAdapter) ChannelType() string  { return "EMAIL" }
func (a *PostmarkEmailAdapter) IsConfigured() bool   { return strings.TrimSpace(a.serverToken) != "" }

func (a *PostmarkEmailAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasEmail() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no email address", profile.CustomerID))
	}

	payload, err := json.Marshal(map[string]any{
		"From":          a.fromAddress,
		"To":            profile.Email,
		"Subject":       event.Subject,
		"TextBody":      event.Body,
		"MessageStream": a.messageStream,
	})
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkEndpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", a.serverToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		var decoded struct {
			MessageID string `json:"MessageID"`
		}
		_ = json.Unmarshal(body, &decoded)
		return domain.NewSuccess(a.ProviderName(), a.ChannelType(), decoded.MessageID, resp.StatusCode)
	}

	return domain.NewFailure(a.ProviderName(), a.ChannelType(),
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
}

func (a *PostmarkEmailAdapter) Close() error { return a.client.Close() }
