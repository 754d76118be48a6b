package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mabello/bodega/internal/model"
)

// GetQuantity returns the current quantity of a product at a branch.
// A missing entry means zero.
func GetQuantity(ctx context.Context, db *sql.DB, productID, branchID int64) (int, error) {
	var quantity int
	err := db.QueryRowContext(ctx,
		`SELECT quantity FROM inventory WHERE product_id = ? AND branch_id = ?`,
		productID, branchID,
	).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting quantity: %w", err)
	}
	return quantity, nil
}

// SetQuantity sets the quantity of a product at a branch, creating the
// entry if absent. Negative quantities are rejected; callers pre-validate
// sufficiency for debits.
func SetQuantity(ctx context.Context, db *sql.DB, productID, branchID int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory (product_id, branch_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (product_id, branch_id)
		 DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP`,
		productID, branchID, quantity,
	)
	if err != nil {
		return fmt.Errorf("setting quantity: %w", err)
	}
	return nil
}

// ListInventory returns the full inventory overview with resolved names.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.InventoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inv.product_id, inv.branch_id, inv.quantity, inv.updated_at,
		        p.name, p.code, b.name, b.type
		 FROM inventory inv
		 JOIN products p ON p.id = inv.product_id
		 JOIN branches b ON b.id = inv.branch_id
		 ORDER BY p.name, b.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

// GetBranchInventory returns the inventory held at one branch.
func GetBranchInventory(ctx context.Context, db *sql.DB, branchID int64) ([]model.InventoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inv.product_id, inv.branch_id, inv.quantity, inv.updated_at,
		        p.name, p.code, b.name, b.type
		 FROM inventory inv
		 JOIN products p ON p.id = inv.product_id
		 JOIN branches b ON b.id = inv.branch_id
		 WHERE inv.branch_id = ?
		 ORDER BY p.name`, branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting branch inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

// GetProductDistribution returns where a product's stock is held.
func GetProductDistribution(ctx context.Context, db *sql.DB, productID int64) ([]model.InventoryEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inv.product_id, inv.branch_id, inv.quantity, inv.updated_at,
		        p.name, p.code, b.name, b.type
		 FROM inventory inv
		 JOIN products p ON p.id = inv.product_id
		 JOIN branches b ON b.id = inv.branch_id
		 WHERE inv.product_id = ?
		 ORDER BY b.type, b.name`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting product distribution: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

func scanInventory(rows *sql.Rows) ([]model.InventoryEntry, error) {
	var entries []model.InventoryEntry
	for rows.Next() {
		var e model.InventoryEntry
		if err := rows.Scan(&e.ProductID, &e.BranchID, &e.Quantity, &e.UpdatedAt,
			&e.ProductName, &e.ProductCode, &e.BranchName, &e.BranchType); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
