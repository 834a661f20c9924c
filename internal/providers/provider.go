package providers

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/cassiomorais/checkout/internal/application/checkout"
)

// breakerProvider wraps a provider so every CreateIntent call goes
// through a circuit breaker. Breaker rejections surface as the
// breaker's error, which the caller treats as an invoke failure.
type breakerProvider struct {
	inner   checkout.PaymentProvider
	breaker *gobreaker.CircuitBreaker[*checkout.IntentResult]
}

func (p *breakerProvider) Name() string { return p.inner.Name() }

func (p *breakerProvider) CreateIntent(ctx context.Context, req checkout.IntentRequest) (*checkout.IntentResult, error) {
	return p.breaker.Execute(func() (*checkout.IntentResult, error) {
		return p.inner.CreateIntent(ctx, req)
	})
}
