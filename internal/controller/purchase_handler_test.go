package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/testutil"
)

func newTestController(store *testutil.MockLedgerStore, verifier *testutil.MockVerifier, trig *testutil.MockTrigger) *PurchaseController {
	orchestrator := checkout.NewOrchestrator(store, verifier, trig, checkout.Options{}, zerolog.Nop())
	completer := checkout.NewCompletePurchaseUseCase(store, zerolog.Nop())
	return NewPurchaseController(orchestrator, completer, store)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestPurchaseController_Submit(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123",
		ProductID:  "prod-1",
		Quantity:   5,
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}

	var resp PurchaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TransactionID == "" {
		t.Error("expected a transaction id")
	}
	if resp.Amount != 15000 {
		t.Errorf("expected amount 15000, got %d", resp.Amount)
	}
	if store.Stock("prod-1") != 8 {
		t.Errorf("expected stock 8, got %d", store.Stock("prod-1"))
	}
}

func TestPurchaseController_Submit_ValidationError(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	tests := []struct {
		name string
		req  PurchaseRequest
	}{
		{"missing account_ref", PurchaseRequest{ProductID: "prod-1", Quantity: 1}},
		{"missing product_id", PurchaseRequest{AccountRef: "acct_123", Quantity: 1}},
		{"zero quantity", PurchaseRequest{AccountRef: "acct_123", ProductID: "prod-1"}},
		{"negative quantity", PurchaseRequest{AccountRef: "acct_123", ProductID: "prod-1", Quantity: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler.Submit, "/api/v1/purchases", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestPurchaseController_Submit_ProductNotFound(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123",
		ProductID:  "missing",
		Quantity:   1,
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "product_not_found" {
		t.Errorf("expected code product_not_found, got %q", resp.Code)
	}
}

func TestPurchaseController_Submit_StockNotEnough(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 3))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123",
		ProductID:  "prod-1",
		Quantity:   5,
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != "stock_not_enough" {
		t.Errorf("expected code stock_not_enough, got %q", resp.Code)
	}
}

func TestPurchaseController_Submit_VerificationFailed(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	verifier := &testutil.MockVerifier{
		VerifyFunc: func(ctx context.Context, accountRef string) error {
			return domainErrors.ErrAccountInvalid
		},
	}
	handler := newTestController(store, verifier, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_bad",
		ProductID:  "prod-1",
		Quantity:   5,
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	// Compensation restored the stock before the response went out
	if store.Stock("prod-1") != 13 {
		t.Errorf("expected stock restored to 13, got %d", store.Stock("prod-1"))
	}
}

func TestPurchaseController_GetStatus(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	r := chi.NewRouter()
	r.Get("/api/v1/purchases/{id}", handler.GetStatus)

	// Seed through a real submission
	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123",
		ProductID:  "prod-1",
		Quantity:   5,
	})
	var submitted PurchaseResponse
	json.Unmarshal(rec.Body.Bytes(), &submitted)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/"+submitted.TransactionID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(transaction.StatusPending) {
		t.Errorf("expected status pending, got %q", resp.Status)
	}
	if resp.Amount != 15000 {
		t.Errorf("expected amount 15000, got %d", resp.Amount)
	}
}

func TestPurchaseController_GetStatus_NotFound(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	r := chi.NewRouter()
	r.Get("/api/v1/purchases/{id}", handler.GetStatus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/unknown", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPurchaseController_Webhook_Success(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123", ProductID: "prod-1", Quantity: 5,
	})
	var submitted PurchaseResponse
	json.Unmarshal(rec.Body.Bytes(), &submitted)

	// Worker moved it to invoked before the provider reported back
	if err := store.UpdateStatus(context.Background(), submitted.TransactionID, transaction.StatusInvoked, ""); err != nil {
		t.Fatal(err)
	}

	rec = postJSON(t, handler.Webhook, "/api/v1/webhooks/payments", WebhookRequest{
		TransactionID: submitted.TransactionID,
		Status:        "success",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	if got := store.Transaction(submitted.TransactionID).Status; got != transaction.StatusSuccess {
		t.Errorf("expected status success, got %q", got)
	}
	// The reservation stays consumed
	if store.Stock("prod-1") != 8 {
		t.Errorf("expected stock 8, got %d", store.Stock("prod-1"))
	}
}

func TestPurchaseController_Webhook_Declined(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123", ProductID: "prod-1", Quantity: 5,
	})
	var submitted PurchaseResponse
	json.Unmarshal(rec.Body.Bytes(), &submitted)

	if err := store.UpdateStatus(context.Background(), submitted.TransactionID, transaction.StatusInvoked, ""); err != nil {
		t.Fatal(err)
	}

	rec = postJSON(t, handler.Webhook, "/api/v1/webhooks/payments", WebhookRequest{
		TransactionID: submitted.TransactionID,
		Status:        "failed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	tx := store.Transaction(submitted.TransactionID)
	if tx.Status != transaction.StatusFailed {
		t.Errorf("expected status failed, got %q", tx.Status)
	}
	if tx.FailureCode == nil || *tx.FailureCode != domainErrors.FailurePaymentDeclined {
		t.Errorf("expected failure code PAYMENT_DECLINED, got %v", tx.FailureCode)
	}
	if store.Stock("prod-1") != 13 {
		t.Errorf("expected stock restored to 13, got %d", store.Stock("prod-1"))
	}
}

func TestPurchaseController_Webhook_Replay(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Submit, "/api/v1/purchases", PurchaseRequest{
		AccountRef: "acct_123", ProductID: "prod-1", Quantity: 5,
	})
	var submitted PurchaseResponse
	json.Unmarshal(rec.Body.Bytes(), &submitted)

	store.UpdateStatus(context.Background(), submitted.TransactionID, transaction.StatusInvoked, "")

	webhook := WebhookRequest{TransactionID: submitted.TransactionID, Status: "success"}
	rec = postJSON(t, handler.Webhook, "/api/v1/webhooks/payments", webhook)
	if rec.Code != http.StatusOK {
		t.Fatalf("first delivery: expected %d, got %d", http.StatusOK, rec.Code)
	}

	rec = postJSON(t, handler.Webhook, "/api/v1/webhooks/payments", webhook)
	if rec.Code != http.StatusConflict {
		t.Fatalf("replay: expected %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
}

func TestPurchaseController_Webhook_InvalidStatus(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	handler := newTestController(store, &testutil.MockVerifier{}, &testutil.MockTrigger{})

	rec := postJSON(t, handler.Webhook, "/api/v1/webhooks/payments", WebhookRequest{
		TransactionID: "tx-1",
		Status:        "maybe",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
