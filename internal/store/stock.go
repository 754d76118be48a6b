package store

import (
	"context"
	"database/sql"
	"fmt"
)

// The stock adjustment service. Every stock-affecting operation
// (purchases, sales, transfers) goes through these primitives; nothing
// else writes the inventory table.
//
// Debits are a single guarded conditional write (quantity >= wanted), so
// the read-check-write is atomic and two concurrent debits cannot both
// succeed against stock that only covers one of them.

// Credit adds quantity of a product at a branch, creating the entry
// lazily. Used when receiving goods with no source branch.
func Credit(ctx context.Context, db *sql.DB, productID, branchID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	return creditTx(ctx, db, productID, branchID, quantity)
}

// Debit removes quantity of a product from a branch. Fails with
// ErrInsufficientStock, mutating nothing, when the available quantity is
// lower than requested.
func Debit(ctx context.Context, db *sql.DB, productID, branchID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	return debitTx(ctx, db, productID, branchID, quantity)
}

// Move debits a product at one branch and credits it at another, in a
// single transaction. Either both sides apply or neither does.
func Move(ctx context.Context, db *sql.DB, productID, fromBranchID, toBranchID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if fromBranchID == toBranchID {
		return fmt.Errorf("%w: source and destination branch must differ", ErrValidation)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := debitTx(ctx, tx, productID, fromBranchID, quantity); err != nil {
		return err
	}
	if err := creditTx(ctx, tx, productID, toBranchID, quantity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stock move: %w", err)
	}
	return nil
}

// execer lets the adjustment primitives run against either *sql.DB or a
// transaction owned by a caller (the transfer state machine applies all
// lines of a transfer inside one transaction).
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func creditTx(ctx context.Context, e execer, productID, branchID int64, quantity int) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO inventory (product_id, branch_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (product_id, branch_id)
		 DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP`,
		productID, branchID, quantity,
	)
	if err != nil {
		return fmt.Errorf("crediting stock: %w", err)
	}
	return nil
}

func debitTx(ctx context.Context, e execer, productID, branchID int64, quantity int) error {
	result, err := e.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE product_id = ? AND branch_id = ? AND quantity >= ?`,
		quantity, productID, branchID, quantity,
	)
	if err != nil {
		return fmt.Errorf("debiting stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting stock: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d at branch %d, requested %d",
			ErrInsufficientStock, productID, branchID, quantity)
	}
	return nil
}
