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

const termiiEndpoint = "https://api.ng.termii.com/api/sms/send"

// TermiiSmsAdapter sends texts via the Termii API, a fallback SMS route for
// Nigerian phone numbers when africas-talking is unavailable.
type TermiiSmsAdapter struct {
	apiKey   string
	senderID string
	client   *rateLimitedClient
}

func NewTermiiSmsAdapter(apiKey, senderID string, timeoutMs int, rps float64) *TermiiSmsAdapter {
	return &TermiiSmsAdapter{apiKey: apiKey, senderID: senderID, client: newHTTPClient(timeoutMs, rps)}
}

func (a *TermiiSmsAdapter) ProviderName() string { return "termii" }
func (a *TermiiSmsAdapter) ChannelType() string  { return "SMS" }
func (a *TermiiSmsAdapter) IsConfigured() bool   { return strings.TrimSpace(a.apiKey) != "" }

func (a *TermiiSmsAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasPhone() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no phone number", profile.CustomerID))
	}

	payload, err := json.Marshal(map[string]any{
		"to":      profile.Phone,
		"from":    a.senderID,
		"sms":     event.Body,
		"type":    "plain",
		"channel": "generic",
		"api_key": a.apiKey,
	})
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, termiiEndpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		var decoded struct {
			MessageID string `json:"message_id"`
		}
		_ = json.Unmarshal(body, &decoded)
		msgID := decoded.MessageID
		if msgID == "" {
			msgID = "unknown"
		}
		return domain.NewSuccess(a.ProviderName(), a.ChannelType(), msgID, resp.StatusCode)
	}
	return domain.NewFailure(a.ProviderName(), a.ChannelType(),
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
}

func (a *TermiiSmsAdapter) Close() error { return a.client.Close() }
