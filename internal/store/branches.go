package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mabello/bodega/internal/model"
)

// CreateBranch creates a new branch (store or warehouse).
func CreateBranch(ctx context.Context, db *sql.DB, name, country, address, branchType string) (*model.Branch, error) {
	if name == "" || country == "" {
		return nil, fmt.Errorf("%w: branch name and country required", ErrValidation)
	}
	if !model.ValidBranchType(branchType) {
		return nil, fmt.Errorf("%w: unknown branch type %q", ErrValidation, branchType)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO branches (name, country, address, type) VALUES (?, ?, ?, ?)`,
		name, country, address, branchType,
	)
	if err != nil {
		return nil, fmt.Errorf("creating branch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting branch id: %w", err)
	}

	return GetBranch(ctx, db, id)
}

// GetBranch returns a branch by ID.
func GetBranch(ctx context.Context, db *sql.DB, id int64) (*model.Branch, error) {
	b := &model.Branch{}
	var address sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, country, address, type, created_at, deleted_at
		 FROM branches WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Country, &address, &b.Type, &b.CreatedAt, &b.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting branch: %w", err)
	}
	b.Address = address.String
	return b, nil
}

// ListBranches returns all non-deleted branches, optionally filtered by type.
func ListBranches(ctx context.Context, db *sql.DB, branchType string) ([]model.Branch, error) {
	query := `SELECT id, name, country, address, type, created_at, deleted_at
	          FROM branches WHERE deleted_at IS NULL`
	var args []any

	if branchType != "" {
		query += ` AND type = ?`
		args = append(args, branchType)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []model.Branch
	for rows.Next() {
		var b model.Branch
		var address sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &address, &b.Type, &b.CreatedAt, &b.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning branch: %w", err)
		}
		b.Address = address.String
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// UpdateBranch updates a branch's details.
func UpdateBranch(ctx context.Context, db *sql.DB, id int64, name, country, address, branchType string) error {
	if name == "" || country == "" {
		return fmt.Errorf("%w: branch name and country required", ErrValidation)
	}
	if !model.ValidBranchType(branchType) {
		return fmt.Errorf("%w: unknown branch type %q", ErrValidation, branchType)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE branches SET name = ?, country = ?, address = ?, type = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, country, address, branchType, id,
	)
	if err != nil {
		return fmt.Errorf("updating branch: %w", err)
	}
	return nil
}

// DeleteBranch soft-deletes a branch. Branches still holding stock cannot
// be deleted.
func DeleteBranch(ctx context.Context, db *sql.DB, id int64) error {
	var held int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE branch_id = ?`, id,
	).Scan(&held)
	if err != nil {
		return fmt.Errorf("checking branch inventory: %w", err)
	}
	if held > 0 {
		return fmt.Errorf("%w: branch still holds %d units of stock", ErrValidation, held)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE branches SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting branch: %w", err)
	}
	return nil
}
