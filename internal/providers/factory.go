package providers

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/cassiomorais/checkout/internal/application/checkout"
)

type Factory struct {
	providers map[string]checkout.PaymentProvider
}

func NewFactory(providersList ...checkout.PaymentProvider) *Factory {
	f := &Factory{
		providers: make(map[string]checkout.PaymentProvider),
	}

	if len(providersList) == 0 {
		f.Register(NewMockProvider("stripe",
			WithLatency(200*time.Millisecond),
			WithFailureRate(0.05),
		))
	} else {
		for _, p := range providersList {
			f.Register(p)
		}
	}

	return f
}

// Register wraps the provider with a circuit breaker keyed by its name.
func (f *Factory) Register(p checkout.PaymentProvider) {
	breaker := gobreaker.NewCircuitBreaker[*checkout.IntentResult](gobreaker.Settings{
		Name:        p.Name(),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
	f.providers[p.Name()] = &breakerProvider{inner: p, breaker: breaker}
}

func (f *Factory) Get(name string) (checkout.PaymentProvider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}
