package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// httpClient wraps the transport policy shared by HTTP-backed
// providers: token-bucket rate limiting, a circuit breaker that fails
// a ticker fast when the upstream is misbehaving, and JSON decoding.
// Retries happen here and nowhere else; the screening core never
// retries.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	headers map[string]string
}

func newHTTPClient(name string, timeout time.Duration, rps float64, burst int, headers map[string]string) *httpClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit breaker state change")
		},
	}

	return &httpClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		headers: headers,
	}
}

// getJSON performs a rate-limited GET through the circuit breaker and
// decodes the response body into out. HTTP 429 is retried once after
// the Retry-After-ish pause below; other non-2xx statuses fail the
// call (and count against the breaker).
func (hc *httpClient) getJSON(ctx context.Context, url string, out any) error {
	if err := hc.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := hc.breaker.Execute(func() (any, error) {
		body, err := hc.get(ctx, url)
		if err != nil {
			return nil, err
		}
		return nil, json.Unmarshal(body, out)
	})
	return err
}

func (hc *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range hc.headers {
			req.Header.Set(k, v)
		}

		resp, err := hc.client.Do(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests && attempt == 0:
			log.Debug().Str("url", url).Msg("rate limited upstream, backing off")
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNoData
		default:
			return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
		}
	}
}
