package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourorg/notification-gateway/internal/domain"
)

const africasTalkingEndpoint = "https://api.africastalking.com/version1/messaging"

// AfricasTalkingSmsAdapter sends texts via the Africa's Talking Messaging
// API, the primary SMS route for East/West African phone numbers.
type AfricasTalkingSmsAdapter struct {
	username string
	apiKey   string
	senderID string
	client   *rateLimitedClient
}

func NewAfricasTalkingSmsAdapter(username, apiKey, senderID string, timeoutMs int, rps float64) *AfricasTalkingSmsAdapter {
	return &AfricasTalkingSmsAdapter{username: username, apiKey: apiKey, senderID: senderID, client: newHTTPClient(timeoutMs, rps)}
}

func (a *AfricasTalkingSmsAdapter) ProviderName() string { return "africas-talking" }
func (a *AfricasTalkingSmsAdapter) ChannelType() string  { return "SMS" }
func (a *AfricasTalkingSmsAdapter) IsConfigured() bool {
	return strings.TrimSpace(a.username) != "" && strings.TrimSpace(a.apiKey) != ""
}

func (a *AfricasTalkingSmsAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasPhone() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no phone number", profile.CustomerID))
	}

	form := url.Values{}
	form.Set("username", a.username)
	form.Set("to", profile.Phone)
	form.Set("message", event.Body)
	if strings.TrimSpace(a.senderID) != "" {
		form.Set("from", a.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, africasTalkingEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	req.Header.Set("apiKey", a.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		if strings.Contains(string(body), `"status":"Success"`) || !strings.Contains(string(body), `"status":"`) {
			return domain.NewSuccess(a.ProviderName(), a.ChannelType(), "unknown", resp.StatusCode)
		}
	}
	return domain.NewFailure(a.ProviderName(), a.ChannelType(),
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
}

func (a *AfricasTalkingSmsAdapter) Close() error { return a.client.Close() }
