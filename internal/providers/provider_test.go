package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/checkout/internal/application/checkout"
)

func TestNewFactory_WithDefaultProviders(t *testing.T) {
	factory := NewFactory()

	assert.NotNil(t, factory)
	assert.Len(t, factory.providers, 1) // stripe mock
	assert.Contains(t, factory.providers, "stripe")
}

func TestNewFactory_WithCustomProviders(t *testing.T) {
	mockProvider := NewMockProvider("test-provider")
	factory := NewFactory(mockProvider)

	assert.NotNil(t, factory)
	assert.Len(t, factory.providers, 1)
	assert.Contains(t, factory.providers, "test-provider")
}

func TestFactory_Get(t *testing.T) {
	factory := NewFactory()

	provider, err := factory.Get("stripe")
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Equal(t, "stripe", provider.Name())
}

func TestFactory_Get_UnknownProvider_Error(t *testing.T) {
	factory := NewFactory()

	provider, err := factory.Get("unknown")
	assert.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestFactory_Register(t *testing.T) {
	factory := NewFactory()
	factory.Register(NewMockProvider("custom", WithLatency(time.Millisecond)))

	provider, err := factory.Get("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", provider.Name())
}

func TestBreakerProvider_OpensAfterRepeatedFailures(t *testing.T) {
	factory := NewFactory(NewMockProvider("flaky",
		WithFailureRate(1.0),
		WithLatency(time.Millisecond),
	))

	provider, err := factory.Get("flaky")
	require.NoError(t, err)

	ctx := context.Background()
	req := checkout.IntentRequest{TransactionID: "tx_123", Amount: 100}

	// Drive the breaker past its trip threshold
	for i := 0; i < 12; i++ {
		_, err = provider.CreateIntent(ctx, req)
		require.Error(t, err)
	}

	// Open breaker rejects without calling through
	start := time.Now()
	_, err = provider.CreateIntent(ctx, req)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Millisecond)
}
