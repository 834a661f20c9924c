package postgres

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/product"
	"github.com/cassiomorais/checkout/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerStore implements checkout.LedgerStore on PostgreSQL. The
// reservation protocol relies on a single database transaction: the
// conditional stock decrement and the transaction insert commit
// together or not at all, so a crash can never separate them.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetProduct retrieves a product by ID.
func (s *LedgerStore) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	p := &product.Product{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, price, stock, created_at, updated_at
		 FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *LedgerStore) GetTransaction(ctx context.Context, id string) (*transaction.Transaction, error) {
	return s.scanTransaction(s.pool.QueryRow(ctx,
		`SELECT id, account_ref, product_id, quantity, amount, status, failure_code,
		        stock_released, created_at, updated_at, expires_at
		 FROM transactions WHERE id = $1`, id))
}

// ReserveAndCreate atomically decrements the product's stock by
// tx.Quantity, conditioned on stock >= tx.Quantity, and inserts tx in
// pending status. Zero rows from the conditional update is the explicit
// precondition-failure signal and rolls the whole transaction back.
func (s *LedgerStore) ReserveAndCreate(ctx context.Context, tx *transaction.Transaction) error {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reservation: %w", err)
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = $2
		 WHERE id = $3 AND stock >= $1`,
		tx.Quantity, time.Now(), tx.ProductID,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrStockNotEnough
	}

	_, err = dbTx.Exec(ctx,
		`INSERT INTO transactions
		 (id, account_ref, product_id, quantity, amount, status, failure_code,
		  stock_released, created_at, updated_at, expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		tx.ID, tx.AccountRef, tx.ProductID, tx.Quantity, tx.Amount, string(tx.Status),
		tx.FailureCode, tx.StockReleased, tx.CreatedAt, tx.UpdatedAt, tx.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

// UpdateStatus writes a status transition, guarded so terminal states
// never move again even under concurrent writers.
func (s *LedgerStore) UpdateStatus(ctx context.Context, transactionID string, status transaction.Status, failureCode string) error {
	var fc *string
	if failureCode != "" {
		fc = &failureCode
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions SET status = $1, failure_code = COALESCE($2, failure_code), updated_at = $3
		 WHERE id = $4 AND status NOT IN ('success', 'failed')`,
		string(status), fc, time.Now(), transactionID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either unknown or already terminal.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, transactionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check transaction: %w", err)
		}
		if !exists {
			return domainErrors.ErrTransactionNotFound
		}
		return domainErrors.ErrInvalidStateTransition
	}
	return nil
}

// ReleaseStock restores quantity to the product and confirms the
// release on the owning transaction, atomically. Re-running it for an
// already-released transaction is a no-op, which makes the compensation
// path and the reconciler safe against each other.
func (s *LedgerStore) ReleaseStock(ctx context.Context, transactionID, productID string, quantity int) error {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin release: %w", err)
	}
	defer dbTx.Rollback(ctx)

	tag, err := dbTx.Exec(ctx,
		`UPDATE transactions SET stock_released = TRUE, updated_at = $1
		 WHERE id = $2 AND stock_released = FALSE`,
		time.Now(), transactionID,
	)
	if err != nil {
		return fmt.Errorf("confirm release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already released, nothing to restore.
		return dbTx.Commit(ctx)
	}

	_, err = dbTx.Exec(ctx,
		`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3`,
		quantity, time.Now(), productID,
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}
	return nil
}

// ListUnreleasedFailed returns failed transactions whose stock release
// was never confirmed, last updated before cutoff.
func (s *LedgerStore) ListUnreleasedFailed(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_ref, product_id, quantity, amount, status, failure_code,
		        stock_released, created_at, updated_at, expires_at
		 FROM transactions
		 WHERE status = 'failed' AND stock_released = FALSE AND updated_at < $1
		 ORDER BY updated_at ASC
		 LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select unreleased failed: %w", err)
	}
	defer rows.Close()

	var out []*transaction.Transaction
	for rows.Next() {
		tx, err := s.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product. Used by seeding and tests, not by
// the saga, which never writes products outside reserve/release.
func (s *LedgerStore) CreateProduct(ctx context.Context, p *product.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, name, price, stock, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *LedgerStore) scanTransaction(sc scanner) (*transaction.Transaction, error) {
	tx := &transaction.Transaction{}
	var status string
	err := sc.Scan(&tx.ID, &tx.AccountRef, &tx.ProductID, &tx.Quantity, &tx.Amount,
		&status, &tx.FailureCode, &tx.StockReleased, &tx.CreatedAt, &tx.UpdatedAt, &tx.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Status = transaction.Status(status)
	return tx, nil
}
