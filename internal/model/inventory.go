package model

import "time"

// InventoryEntry represents the current quantity of a product at a branch.
// At most one entry exists per (product, branch) pair; a missing entry
// means a quantity of zero.
type InventoryEntry struct {
	ProductID int64     `json:"product_id"`
	BranchID  int64     `json:"branch_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ProductName string `json:"product_name,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
	BranchType  string `json:"branch_type,omitempty"`
}
