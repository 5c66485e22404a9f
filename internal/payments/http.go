package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const providerTimeout = 15 * time.Second

// apiClient is the shared outbound HTTP path for the crypto providers: a
// bounded-timeout client behind a per-provider circuit breaker, so a dead
// provider fails fast instead of tying up request handlers.
type apiClient struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func newAPIClient(name string, log *zap.Logger) *apiClient {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("payment provider circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &apiClient{
		http:    &http.Client{Timeout: providerTimeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		log:     log,
	}
}

// doJSON performs one JSON request/response round trip through the breaker.
// Non-2xx responses count as failures.
func (c *apiClient) doJSON(ctx context.Context, method, url string, header http.Header, reqBody, respOut any) error {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if reqBody != nil {
			buf, err := json.Marshal(reqBody)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if respOut != nil {
		if err := json.Unmarshal(raw, respOut); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrProvider, err)
		}
	}
	return nil
}
