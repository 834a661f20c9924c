package transaction

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the transaction status in the state machine.
type Status string

const (
	StatusPending Status = "pending"
	StatusInvoked Status = "invoked"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Transaction records a single purchase attempt. transactionId,
// productId, quantity and amount are immutable after creation; only
// status, failureCode and updatedAt change afterwards.
type Transaction struct {
	ID            string
	AccountRef    string
	ProductID     string
	Quantity      int
	Amount        int64 // price * quantity at creation time
	Status        Status
	FailureCode   *string
	StockReleased bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time // retention horizon, advisory only
}

// New creates a pending transaction with a fresh globally unique ID.
func New(accountRef, productID string, quantity int, amount int64, retention time.Duration) (*Transaction, error) {
	if accountRef == "" {
		return nil, errors.NewValidationError("account_ref", "cannot be empty")
	}
	if productID == "" {
		return nil, errors.NewValidationError("product_id", "cannot be empty")
	}
	if quantity <= 0 {
		return nil, errors.NewValidationError("quantity", "must be greater than 0")
	}
	if amount <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}

	now := time.Now()
	return &Transaction{
		ID:         uuid.New().String(),
		AccountRef: accountRef,
		ProductID:  productID,
		Quantity:   quantity,
		Amount:     amount,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(retention),
	}, nil
}

// CanTransitionTo checks if the transaction can move to the given status.
func (t *Transaction) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusInvoked,
			StatusFailed, // verification or trigger failure
		},
		StatusInvoked: {
			StatusSuccess,
			StatusFailed,
		},
		StatusSuccess: {}, // terminal
		StatusFailed:  {}, // terminal
	}

	allowed, exists := transitions[t.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo moves the transaction to a new status, refreshing
// updatedAt. Terminal states never transition again.
func (t *Transaction) TransitionTo(newStatus Status) error {
	if !t.CanTransitionTo(newStatus) {
		return errors.NewSagaError(
			errors.CodeStoreError,
			"cannot transition from "+string(t.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}
	t.Status = newStatus
	t.UpdatedAt = time.Now()
	return nil
}

// MarkInvoked transitions the transaction to invoked.
func (t *Transaction) MarkInvoked() error {
	return t.TransitionTo(StatusInvoked)
}

// MarkSuccess transitions the transaction to success.
func (t *Transaction) MarkSuccess() error {
	return t.TransitionTo(StatusSuccess)
}

// MarkFailed transitions the transaction to failed with a failure code.
func (t *Transaction) MarkFailed(failureCode string) error {
	if err := t.TransitionTo(StatusFailed); err != nil {
		return err
	}
	t.FailureCode = &failureCode
	return nil
}

// IsTerminal checks if the transaction is in a terminal state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// NeedsCompensation reports whether a failed transaction still holds
// reserved stock. Used by the reconciliation sweep.
func (t *Transaction) NeedsCompensation() bool {
	return t.Status == StatusFailed && !t.StockReleased
}
