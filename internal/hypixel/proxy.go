package hypixel

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"guildbot/internal/common"

	"github.com/rs/zerolog/log"
)

var statusMessages = map[int]string{
	http.StatusOK:                  "OK",
	http.StatusBadRequest:          "Bad request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Data not found",
	http.StatusTooManyRequests:     "Rate limit exceeded",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Bad gateway",
	http.StatusServiceUnavailable:  "Service unavailable",
	http.StatusGatewayTimeout:      "Gateway timeout",
}

// Proxy performs GET requests against an upstream API, gated by a rate
// limiter. Vital requests wait for a slot; non-vital requests (the
// background sweep) are dropped when the limiter is saturated.
type Proxy struct {
	header  map[string]string
	client  *http.Client
	limiter *common.RateLimiter
}

func NewProxy(header map[string]string, restrictions []common.Restriction) *Proxy {
	return &Proxy{
		header:  header,
		client:  &http.Client{},
		limiter: common.NewRateLimiter(restrictions),
	}
}

// Get requests the url and returns the response body.
// Every failure comes back as an error; a 429 additionally puts the rate
// limiter on cooldown.
func (proxy *Proxy) Get(ctx context.Context, url string, vital bool) ([]byte, error) {

	if err := proxy.limiter.Wait(ctx, vital); err != nil {
		return nil, fmt.Errorf("request not allowed: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}

	response, err := proxy.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("could not perform request: %w", err)
	}
	defer response.Body.Close()

	message, ok := statusMessages[response.StatusCode]
	if !ok {
		message = "Unexpected status"
	}
	log.Debug().Msgf("%d %s", response.StatusCode, message)

	switch response.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read response body: %w", err)
		}
		return body, nil
	case http.StatusTooManyRequests:
		proxy.limiter.ReceivedRateLimit()
		return nil, fmt.Errorf("upstream rate limit exceeded")
	default:
		return nil, fmt.Errorf("upstream returned %d %s", response.StatusCode, message)
	}
}
