package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cassiomorais/checkout/internal/application/checkout"
)

// PurchaseController handles purchase-related HTTP requests.
type PurchaseController struct {
	orchestrator *checkout.Orchestrator
	completer    *checkout.CompletePurchaseUseCase
	store        checkout.LedgerStore
}

// NewPurchaseController creates a new PurchaseController.
func NewPurchaseController(
	orchestrator *checkout.Orchestrator,
	completer *checkout.CompletePurchaseUseCase,
	store checkout.LedgerStore,
) *PurchaseController {
	return &PurchaseController{
		orchestrator: orchestrator,
		completer:    completer,
		store:        store,
	}
}

// Submit handles POST /api/v1/purchases
func (h *PurchaseController) Submit(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.orchestrator.Submit(r.Context(), checkout.SubmitRequest{
		AccountRef: req.AccountRef,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Accepted, not created: the downstream workflow still decides the
	// transaction's terminal status.
	writeJSON(w, http.StatusAccepted, PurchaseResponse{
		TransactionID: resp.TransactionID,
		Amount:        resp.Amount,
	})
}

// GetStatus handles GET /api/v1/purchases/{id}
func (h *PurchaseController) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing transaction id", Code: "invalid_id"})
		return
	}

	tx, err := h.store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTransaction(tx))
}

// Webhook handles POST /api/v1/webhooks/payments
func (h *PurchaseController) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var err error
	switch req.Status {
	case "success":
		err = h.completer.Succeed(r.Context(), req.TransactionID)
	case "failed":
		err = h.completer.Decline(r.Context(), req.TransactionID)
	}

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
