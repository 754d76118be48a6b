package model

import (
	"fmt"
	"time"
)

// Product represents a catalog product (quantity-based, not serialized).
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Category    string     `json:"category,omitempty"`
	Description string     `json:"description,omitempty"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ValidateProductCode checks that a code is exactly four alphanumeric
// characters. Codes are stored upper-cased and must be unique among
// active products.
func ValidateProductCode(code string) error {
	if len(code) != 4 {
		return fmt.Errorf("product code must be exactly 4 characters")
	}
	for _, c := range code {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return fmt.Errorf("product code must be alphanumeric")
		}
	}
	return nil
}
