package controller

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/transaction"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string IDs, validation tags).
// Controllers convert these to application layer requests before
// calling business logic.

// PurchaseRequest holds the input for submitting a purchase.
type PurchaseRequest struct {
	AccountRef string `json:"account_ref" validate:"required"`
	ProductID  string `json:"product_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
}

// WebhookRequest holds a payment provider's terminal status report.
type WebhookRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=success failed"`
}

// --- Response DTOs ---

// PurchaseResponse represents an admitted purchase.
type PurchaseResponse struct {
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string    `json:"id"`
	AccountRef  string    `json:"account_ref"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	FailureCode *string   `json:"failure_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FromTransaction converts a domain transaction to API response.
func FromTransaction(t *transaction.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          t.ID,
		AccountRef:  t.AccountRef,
		ProductID:   t.ProductID,
		Quantity:    t.Quantity,
		Amount:      t.Amount,
		Status:      string(t.Status),
		FailureCode: t.FailureCode,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
