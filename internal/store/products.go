package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mabello/bodega/internal/model"
)

// CreateProduct creates a new catalog product. The code is normalized to
// upper case and must be unique among active products.
func CreateProduct(ctx context.Context, db *sql.DB, name, code, category, description string) (*model.Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name required", ErrValidation)
	}
	if err := model.ValidateProductCode(code); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	code = strings.ToUpper(code)

	var taken int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE code = ? AND deleted_at IS NULL`, code,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("checking product code: %w", err)
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: product code %s already in use", ErrValidation, code)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, code, category, description) VALUES (?, ?, ?, ?)`,
		name, code, category, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	p := &model.Product{}
	var category, description, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, code, category, description, image_mime, created_at, updated_at, deleted_at
		 FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Code, &category, &description, &imageMime, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.Category = category.String
	p.Description = description.String
	p.ImageMime = imageMime.String
	return p, nil
}

// ListProducts returns all non-deleted products, optionally filtered by
// category.
func ListProducts(ctx context.Context, db *sql.DB, category string) ([]model.Product, error) {
	query := `SELECT id, name, code, category, description, image_mime, created_at, updated_at, deleted_at
	          FROM products WHERE deleted_at IS NULL`
	var args []any

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var category, description, imageMime sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &category, &description, &imageMime,
			&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Category = category.String
		p.Description = description.String
		p.ImageMime = imageMime.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's metadata. The code stays immutable
// once assigned; it identifies the product on printed labels.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, name, category, description string) error {
	if name == "" {
		return fmt.Errorf("%w: product name required", ErrValidation)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE products SET name = ?, category = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, category, description, id,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

// DeleteProduct soft-deletes a product and drops its inventory entries.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id,
	); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM inventory WHERE product_id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting product inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing product deletion: %w", err)
	}
	return nil
}

// SetProductImage sets a product's image data.
func SetProductImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE products SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting product image: %w", err)
	}
	return nil
}

// GetProductImage returns a product's image data and MIME type.
func GetProductImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM products WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting product image: %w", err)
	}
	return image, mime.String, nil
}
