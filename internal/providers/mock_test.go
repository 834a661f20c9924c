package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
)

func TestNewMockProvider(t *testing.T) {
	provider := NewMockProvider("test")

	assert.NotNil(t, provider)
	assert.Equal(t, "test", provider.Name())
}

func TestMockProvider_CreateIntent_Success(t *testing.T) {
	provider := NewMockProvider("test", WithFailureRate(0.0), WithLatency(time.Millisecond))
	ctx := context.Background()

	req := checkout.IntentRequest{
		TransactionID: "tx_123",
		AccountRef:    "acct_123",
		Amount:        15000,
	}

	result, err := provider.CreateIntent(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.IntentID, "test_pi_")
}

func TestMockProvider_CreateIntent_Failure(t *testing.T) {
	provider := NewMockProvider("test", WithFailureRate(1.0), WithLatency(time.Millisecond))
	ctx := context.Background()

	result, err := provider.CreateIntent(ctx, checkout.IntentRequest{TransactionID: "tx_123"})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrProviderRejected))
	assert.Contains(t, err.Error(), "tx_123")
}

func TestMockProvider_CreateIntent_Timeout(t *testing.T) {
	provider := NewMockProvider("test", WithTimeoutRate(1.0), WithLatency(time.Millisecond))
	ctx := context.Background()

	result, err := provider.CreateIntent(ctx, checkout.IntentRequest{TransactionID: "tx_123"})
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domainErrors.ErrProviderTimeout))
}

func TestMockProvider_Latency(t *testing.T) {
	latency := 50 * time.Millisecond
	provider := NewMockProvider("test", WithLatency(latency), WithFailureRate(0.0))
	ctx := context.Background()

	start := time.Now()
	_, err := provider.CreateIntent(ctx, checkout.IntentRequest{TransactionID: "tx_123"})
	duration := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, duration, latency)
}

func TestMockProvider_ContextCancelled(t *testing.T) {
	provider := NewMockProvider("test", WithLatency(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.CreateIntent(ctx, checkout.IntentRequest{TransactionID: "tx_123"})
	assert.ErrorIs(t, err, context.Canceled)
}
