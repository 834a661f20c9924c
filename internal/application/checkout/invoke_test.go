package checkout_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/rs/zerolog"
)

func submitOne(t *testing.T, store *testutil.MockLedgerStore) string {
	t.Helper()
	o := newOrchestrator(store, &testutil.MockVerifier{}, &testutil.MockTrigger{}, checkout.Options{SkipVerification: true})
	resp, err := o.Submit(context.Background(), checkout.SubmitRequest{AccountRef: "acct_1", ProductID: "prod-1", Quantity: 5})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return resp.TransactionID
}

func TestInvokePayment_Success(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	txID := submitOne(t, store)

	uc := checkout.NewInvokePaymentUseCase(store, &testutil.MockProvider{}, zerolog.Nop())
	if err := uc.Execute(ctx, txID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx := store.Transaction(txID)
	if tx.Status != transaction.StatusInvoked {
		t.Errorf("expected status invoked, got %s", tx.Status)
	}
	if store.Stock("prod-1") != 8 {
		t.Errorf("expected stock to stay at 8, got %d", store.Stock("prod-1"))
	}
}

func TestInvokePayment_ProviderError_Compensates(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	txID := submitOne(t, store)

	provider := &testutil.MockProvider{CreateIntentFunc: func(ctx context.Context, req checkout.IntentRequest) (*checkout.IntentResult, error) {
		return nil, domainErrors.ErrProviderRejected
	}}
	uc := checkout.NewInvokePaymentUseCase(store, provider, zerolog.Nop())

	err := uc.Execute(ctx, txID)
	if !stderrors.Is(err, domainErrors.ErrProviderRejected) {
		t.Fatalf("expected provider rejection, got %v", err)
	}

	tx := store.Transaction(txID)
	if tx.Status != transaction.StatusFailed {
		t.Errorf("expected status failed, got %s", tx.Status)
	}
	if tx.FailureCode == nil || *tx.FailureCode != domainErrors.FailurePaymentInvokeError {
		t.Errorf("expected failure code PAYMENT_INVOKE_ERROR, got %v", tx.FailureCode)
	}
	if store.Stock("prod-1") != 13 {
		t.Errorf("expected stock restored to 13, got %d", store.Stock("prod-1"))
	}
}

func TestInvokePayment_RedeliveryIsHarmless(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMockLedgerStore()
	store.AddProduct(testutil.NewTestProduct("prod-1", 3000, 13))
	txID := submitOne(t, store)

	calls := 0
	provider := &testutil.MockProvider{CreateIntentFunc: func(ctx context.Context, req checkout.IntentRequest) (*checkout.IntentResult, error) {
		calls++
		return &checkout.IntentResult{IntentID: "pi_1"}, nil
	}}
	uc := checkout.NewInvokePaymentUseCase(store, provider, zerolog.Nop())

	if err := uc.Execute(ctx, txID); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := uc.Execute(ctx, txID); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single provider call, got %d", calls)
	}
}

func TestInvokePayment_UnknownTransaction(t *testing.T) {
	store := testutil.NewMockLedgerStore()
	uc := checkout.NewInvokePaymentUseCase(store, &testutil.MockProvider{}, zerolog.Nop())
	err := uc.Execute(context.Background(), "missing")
	if !stderrors.Is(err, domainErrors.ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}
}
