package channel

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient wraps an *http.Client with an optional requests/second
// ceiling, so a run of retries against one flaky provider cannot monopolize
// outbound bandwidth that the other fallback providers also need. A zero
// limit means unlimited (the common case for low-volume bank alerting).
type rateLimitedClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(timeoutMs int, requestsPerSecond float64) *rateLimitedClient {
	if timeoutMs <= 0 {
		timeoutMs = 15_000
	}
	c := &rateLimitedClient{
		http: &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
	}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c
}

// Do waits for a rate-limiter token (if configured) before issuing the
// request, respecting the request's own context for cancellation.
func (c *rateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.http.Do(req)
}

func (c *rateLimitedClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
