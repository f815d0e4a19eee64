// Package payments implements domain.PaymentProvider for Paystack, Stripe and
// Viva Wallet. Every outbound call goes through a per-provider circuit breaker
// and the shared retry policy.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/retry"
	"github.com/sony/gobreaker"
)

const (
	requestTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// APIError is a non-2xx provider response.
type APIError struct {
	Provider   domain.Provider
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// apiClient carries the transport concerns shared by the three providers.
type apiClient struct {
	provider domain.Provider
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.PaymentMetrics
	policy   retry.Policy
}

func newAPIClient(provider domain.Provider, httpClient *http.Client, m *metrics.PaymentMetrics) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	c := &apiClient{
		provider: provider,
		http:     httpClient,
		metrics:  m,
		policy:   retry.ProviderPolicy,
	}
	c.policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Payment provider call failed, retrying",
			"provider", provider, "attempt", attempt, "backoff", backoff, "error", err)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A 4xx means the provider is up and rejected this request.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	})
	return c
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// do sends the request built by newReq and decodes a JSON body into out.
// newReq runs once per attempt so bodies can be replayed.
func (c *apiClient) do(ctx context.Context, operation string, newReq func(context.Context) (*http.Request, error), out any) error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ProviderDuration.WithLabelValues(string(c.provider), operation).Observe(time.Since(start).Seconds())
		}
	}()

	return retry.DoVoid(ctx, c.policy, classify, func() error {
		_, err := c.breaker.Execute(func() (any, error) {
			return nil, c.roundTrip(ctx, newReq, out)
		})
		return err
	})
}

func (c *apiClient) roundTrip(ctx context.Context, newReq func(context.Context) (*http.Request, error), out any) error {
	req, err := newReq(ctx)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{Provider: c.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.provider, err)
	}
	return nil
}

func classify(err error) retry.Action {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Stop
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return retry.Retry
	}
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return retry.After
	case apiErr.StatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

func (c *apiClient) State() gobreaker.State {
	return c.breaker.State()
}
