package model

import "time"

// Branch represents a physical location holding its own inventory.
type Branch struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Country   string     `json:"country"`
	Address   string     `json:"address,omitempty"`
	Type      string     `json:"type"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Branch types.
const (
	BranchTypeStore     = "store"
	BranchTypeWarehouse = "warehouse"
)

// ValidBranchType reports whether t is a known branch type.
func ValidBranchType(t string) bool {
	return t == BranchTypeStore || t == BranchTypeWarehouse
}
