package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	retrygo "github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/pkg/retry"
)

// Client verifies purchaser accounts against the payment platform's
// customer API. Lookups run under a hard timeout; a verification that
// cannot complete in time is treated the same as a rejection upstream.
type Client struct {
	http      *http.Client
	baseURL   string
	secretKey string
	retryCfg  retry.Config
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    zerolog.Logger
}

func NewClient(cfg *config.VerifierConfig, logger zerolog.Logger) *Client {
	threshold := cfg.CircuitBreakerThreshold
	if threshold == 0 {
		threshold = 10
	}
	breakerTimeout := cfg.CircuitBreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		retryCfg: retry.Config{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "account-verifier",
			Timeout: breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// An invalid account is a definitive answer, not an outage.
				return err == nil || errors.Is(err, domainErrors.ErrAccountInvalid)
			},
		}),
		logger: logger.With().Str("component", "verifier").Logger(),
	}
}

type customerResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Verify looks the account up at the customer API. Transient failures
// are retried; definitive rejections and timeouts are not.
func (c *Client) Verify(ctx context.Context, accountRef string) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, retry.Do(ctx, c.retryCfg, func() error {
			return c.lookup(ctx, accountRef)
		})
	})
	return err
}

func (c *Client) lookup(ctx context.Context, accountRef string) error {
	url := fmt.Sprintf("%s/customers/%s", c.baseURL, accountRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retrygo.Unrecoverable(fmt.Errorf("failed to build verify request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return retrygo.Unrecoverable(fmt.Errorf("%w: %w", domainErrors.ErrVerifierTimeout, err))
		}
		return fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var customer customerResponse
		if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
			return fmt.Errorf("failed to decode customer response: %w", err)
		}
		if customer.Deleted {
			c.logger.Warn().Str("account_ref", accountRef).Msg("account is deleted")
			return retrygo.Unrecoverable(domainErrors.ErrAccountInvalid)
		}
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.Warn().
			Str("account_ref", accountRef).
			Int("status", resp.StatusCode).
			Msg("account lookup rejected")
		return retrygo.Unrecoverable(domainErrors.ErrAccountInvalid)

	default:
		return fmt.Errorf("customer API returned status %d", resp.StatusCode)
	}
}
