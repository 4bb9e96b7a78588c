package resolver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/notification-gateway/internal/domain"
	"github.com/yourorg/notification-gateway/internal/logger"
)

// HTTPResolver calls a production customer profile service:
// GET {baseUrl}/customers/by-account/{accountId}.
type HTTPResolver struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewHTTPResolver(baseURL string, timeoutMs int, log logger.Logger) *HTTPResolver {
	if timeoutMs <= 0 {
		timeoutMs = 3_000
	}
	return &HTTPResolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		log:     log,
	}
}

type httpResolverResponse struct {
	CustomerID  int64  `json:"customerId"`
	AccountID   int64  `json:"accountId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (r *HTTPResolver) Resolve(accountID int64) (domain.CustomerProfile, bool) {
	url := fmt.Sprintf("%s/customers/by-account/%d", r.baseURL, accountID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		r.log.Error("failed to build customer resolve request", err, map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		r.log.Error("customer resolve request failed", err, map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.log.Warn("customer not found", map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.log.Error("customer service error", nil, map[string]any{"accountId": accountID, "httpStatus": resp.StatusCode})
		return domain.CustomerProfile{}, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return domain.CustomerProfile{}, false
	}

	var decoded httpResolverResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		r.log.Error("failed to parse customer resolve response", err, map[string]any{"accountId": accountID})
		return domain.CustomerProfile{}, false
	}

	return domain.CustomerProfile{
		CustomerID: decoded.CustomerID, AccountID: decoded.AccountID,
		FirstName: decoded.FirstName, LastName: decoded.LastName,
		Email: decoded.Email, Phone: decoded.PhoneNumber,
	}, true
}

func (r *HTTPResolver) Close() error {
	r.http.CloseIdleConnections()
	return nil
}
