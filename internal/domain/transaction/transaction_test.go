package transaction_test

import (
	"testing"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingTransaction(t *testing.T) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New("acct_1", "prod_1", 5, 15000, 24*time.Hour)
	require.NoError(t, err)
	return tx
}

func TestNew_Valid(t *testing.T) {
	tx, err := transaction.New("acct_1", "prod_1", 5, 15000, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, tx.Status)
	assert.Equal(t, "acct_1", tx.AccountRef)
	assert.Equal(t, "prod_1", tx.ProductID)
	assert.Equal(t, 5, tx.Quantity)
	assert.Equal(t, int64(15000), tx.Amount)
	assert.NotEmpty(t, tx.ID)
	assert.Nil(t, tx.FailureCode)
	assert.False(t, tx.StockReleased)
	assert.True(t, tx.ExpiresAt.After(tx.CreatedAt))
}

func TestNew_DistinctIDs(t *testing.T) {
	a := newPendingTransaction(t)
	b := newPendingTransaction(t)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNew_InvalidInputs(t *testing.T) {
	cases := []struct {
		name       string
		accountRef string
		productID  string
		quantity   int
		amount     int64
	}{
		{"empty account ref", "", "prod_1", 1, 100},
		{"empty product id", "acct_1", "", 1, 100},
		{"zero quantity", "acct_1", "prod_1", 0, 100},
		{"negative quantity", "acct_1", "prod_1", -3, 100},
		{"zero amount", "acct_1", "prod_1", 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := transaction.New(tc.accountRef, tc.productID, tc.quantity, tc.amount, time.Hour)
			assert.ErrorIs(t, err, errors.ErrInvalidRequest)
		})
	}
}

func TestTransitions_PendingToInvoked(t *testing.T) {
	tx := newPendingTransaction(t)
	require.NoError(t, tx.MarkInvoked())
	assert.Equal(t, transaction.StatusInvoked, tx.Status)
}

func TestTransitions_PendingToFailed(t *testing.T) {
	tx := newPendingTransaction(t)
	require.NoError(t, tx.MarkFailed(errors.FailureInvalidAccount))
	assert.Equal(t, transaction.StatusFailed, tx.Status)
	require.NotNil(t, tx.FailureCode)
	assert.Equal(t, errors.FailureInvalidAccount, *tx.FailureCode)
}

func TestTransitions_InvokedToTerminal(t *testing.T) {
	tx := newPendingTransaction(t)
	require.NoError(t, tx.MarkInvoked())
	require.NoError(t, tx.MarkSuccess())
	assert.True(t, tx.IsTerminal())

	tx2 := newPendingTransaction(t)
	require.NoError(t, tx2.MarkInvoked())
	require.NoError(t, tx2.MarkFailed(errors.FailurePaymentDeclined))
	assert.True(t, tx2.IsTerminal())
}

func TestTransitions_PendingToSuccessRejected(t *testing.T) {
	tx := newPendingTransaction(t)
	err := tx.MarkSuccess()
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	assert.Equal(t, transaction.StatusPending, tx.Status)
}

func TestTransitions_TerminalStatesAreFinal(t *testing.T) {
	tx := newPendingTransaction(t)
	require.NoError(t, tx.MarkInvoked())
	require.NoError(t, tx.MarkSuccess())

	assert.ErrorIs(t, tx.MarkFailed("X"), errors.ErrInvalidStateTransition)
	assert.ErrorIs(t, tx.TransitionTo(transaction.StatusPending), errors.ErrInvalidStateTransition)
	assert.ErrorIs(t, tx.TransitionTo(transaction.StatusInvoked), errors.ErrInvalidStateTransition)

	failed := newPendingTransaction(t)
	require.NoError(t, failed.MarkFailed(errors.FailureDownstreamTrigger))
	assert.ErrorIs(t, failed.MarkSuccess(), errors.ErrInvalidStateTransition)
	assert.ErrorIs(t, failed.TransitionTo(transaction.StatusPending), errors.ErrInvalidStateTransition)
}

func TestTransitions_RefreshUpdatedAt(t *testing.T) {
	tx := newPendingTransaction(t)
	created := tx.CreatedAt
	before := tx.UpdatedAt
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, tx.MarkInvoked())
	assert.True(t, tx.UpdatedAt.After(before))
	assert.Equal(t, created, tx.CreatedAt)
}

func TestNeedsCompensation(t *testing.T) {
	tx := newPendingTransaction(t)
	assert.False(t, tx.NeedsCompensation())

	require.NoError(t, tx.MarkFailed(errors.FailureInvalidAccount))
	assert.True(t, tx.NeedsCompensation())

	tx.StockReleased = true
	assert.False(t, tx.NeedsCompensation())
}
