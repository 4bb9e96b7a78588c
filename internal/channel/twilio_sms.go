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

const twilioEndpointTemplate = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

// TwilioSmsAdapter sends texts via the Twilio Messages API.
type TwilioSmsAdapter struct {
	accountSID string
	authToken  string
	fromNumber string
	endpoint   string
	client     *rateLimitedClient
}

func NewTwilioSmsAdapter(accountSID, authToken, fromNumber string, timeoutMs int, rps float64) *TwilioSmsAdapter {
	return &TwilioSmsAdapter{
		accountSID: accountSID, authToken: authToken, fromNumber: fromNumber,
		endpoint: fmt.Sprintf(twilioEndpointTemplate, accountSID),
		client:   newHTTPClient(timeoutMs, rps),
	}
}

func (a *TwilioSmsAdapter) ProviderName() string { return "twilio" }
func (a *TwilioSmsAdapter) ChannelType() string  { return "SMS" }
func (a *TwilioSmsAdapter) IsConfigured() bool {
	return strings.TrimSpace(a.accountSID) != "" && strings.TrimSpace(a.authToken) != ""
}

func (a *TwilioSmsAdapter) Send(ctx context.Context, event domain.NotificationEvent, profile domain.CustomerProfile) domain.DeliveryResult {
	if !profile.HasPhone() {
		return domain.NewSkipped(a.ProviderName(), a.ChannelType(),
			fmt.Sprintf("customer %d has no phone number", profile.CustomerID))
	}

	form := url.Values{}
	form.Set("To", profile.Phone)
	form.Set("From", a.fromNumber)
	form.Set("Body", event.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	req.SetBasicAuth(a.accountSID, a.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.NewFailure(a.ProviderName(), a.ChannelType(), err.Error(), 0)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated {
		return domain.NewSuccess(a.ProviderName(), a.ChannelType(), extractTwilioSid(body), resp.StatusCode)
	}
	return domain.NewFailure(a.ProviderName(), a.ChannelType(),
		fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
}

func extractTwilioSid(body []byte) string {
	const marker = `"sid":"`
	idx := strings.Index(string(body), marker)
	if idx < 0 {
		return "unknown"
	}
	rest := string(body)[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "unknown"
	}
	return rest[:end]
}

func (a *TwilioSmsAdapter) Close() error { return a.client.Close() }
