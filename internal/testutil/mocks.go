package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/cassiomorais/checkout/internal/application/checkout"
	"github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/product"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
)

// --- Ledger Store Mock ---

// MockLedgerStore is an in-memory checkout.LedgerStore. Its
// ReserveAndCreate honors the real atomicity contract: the stock
// decrement and the transaction insert happen under one lock, and an
// insufficient stock precondition leaves both records untouched.
type MockLedgerStore struct {
	mu           sync.Mutex
	products     map[string]*product.Product
	transactions map[string]*transaction.Transaction

	GetProductFunc           func(ctx context.Context, id string) (*product.Product, error)
	GetTransactionFunc       func(ctx context.Context, id string) (*transaction.Transaction, error)
	ReserveAndCreateFunc     func(ctx context.Context, tx *transaction.Transaction) error
	UpdateStatusFunc         func(ctx context.Context, transactionID string, status transaction.Status, failureCode string) error
	ReleaseStockFunc         func(ctx context.Context, transactionID, productID string, quantity int) error
	ListUnreleasedFailedFunc func(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error)
}

func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{
		products:     make(map[string]*product.Product),
		transactions: make(map[string]*transaction.Transaction),
	}
}

// AddProduct pre-populates the mock with a product.
func (m *MockLedgerStore) AddProduct(p *product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// Stock returns the current stock counter for a product.
func (m *MockLedgerStore) Stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[productID]; ok {
		return p.Stock
	}
	return -1
}

// Transaction returns the stored transaction by ID, or nil.
func (m *MockLedgerStore) Transaction(id string) *transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[id]
}

// Transactions returns all stored transactions.
func (m *MockLedgerStore) Transactions() []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		out = append(out, tx)
	}
	return out
}

func (m *MockLedgerStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockLedgerStore) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, errors.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *MockLedgerStore) ReserveAndCreate(ctx context.Context, tx *transaction.Transaction) error {
	if m.ReserveAndCreateFunc != nil {
		return m.ReserveAndCreateFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[tx.ProductID]
	if !ok {
		return errors.ErrProductNotFound
	}
	if p.Stock < tx.Quantity {
		return errors.ErrStockNotEnough
	}
	p.Stock -= tx.Quantity
	cp := *tx
	m.transactions[tx.ID] = &cp
	return nil
}

func (m *MockLedgerStore) UpdateStatus(ctx context.Context, transactionID string, status transaction.Status, failureCode string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, transactionID, status, failureCode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[transactionID]
	if !ok {
		return errors.ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	if failureCode != "" {
		fc := failureCode
		tx.FailureCode = &fc
	}
	return nil
}

func (m *MockLedgerStore) ReleaseStock(ctx context.Context, transactionID, productID string, quantity int) error {
	if m.ReleaseStockFunc != nil {
		return m.ReleaseStockFunc(ctx, transactionID, productID, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return errors.ErrProductNotFound
	}
	tx, ok := m.transactions[transactionID]
	if !ok {
		return errors.ErrTransactionNotFound
	}
	if tx.StockReleased {
		return nil
	}
	p.Stock += quantity
	tx.StockReleased = true
	return nil
}

func (m *MockLedgerStore) ListUnreleasedFailed(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	if m.ListUnreleasedFailedFunc != nil {
		return m.ListUnreleasedFailedFunc(ctx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*transaction.Transaction
	for _, tx := range m.transactions {
		if tx.Status == transaction.StatusFailed && !tx.StockReleased && tx.UpdatedAt.Before(cutoff) {
			cp := *tx
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- Account Verifier Mock ---

// MockVerifier is a mock implementation of checkout.AccountVerifier.
type MockVerifier struct {
	mu    sync.Mutex
	calls []string

	VerifyFunc func(ctx context.Context, accountRef string) error
}

func (m *MockVerifier) Verify(ctx context.Context, accountRef string) error {
	m.mu.Lock()
	m.calls = append(m.calls, accountRef)
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, accountRef)
	}
	return nil
}

// Calls returns the account refs verified so far.
func (m *MockVerifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// --- Downstream Trigger Mock ---

// MockTrigger is a mock implementation of checkout.DownstreamTrigger.
type MockTrigger struct {
	mu          sync.Mutex
	invocations []checkout.Invocation

	InvokeFunc func(ctx context.Context, inv checkout.Invocation) error
}

func (m *MockTrigger) Invoke(ctx context.Context, inv checkout.Invocation) error {
	if m.InvokeFunc != nil {
		if err := m.InvokeFunc(ctx, inv); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations = append(m.invocations, inv)
	return nil
}

// Invocations returns the accepted invocations so far.
func (m *MockTrigger) Invocations() []checkout.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]checkout.Invocation(nil), m.invocations...)
}

// --- Payment Provider Mock ---

// MockProvider is a mock implementation of checkout.PaymentProvider.
type MockProvider struct {
	CreateIntentFunc func(ctx context.Context, req checkout.IntentRequest) (*checkout.IntentResult, error)
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) CreateIntent(ctx context.Context, req checkout.IntentRequest) (*checkout.IntentResult, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, req)
	}
	return &checkout.IntentResult{IntentID: "pi_" + req.TransactionID}, nil
}
