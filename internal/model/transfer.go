package model

import "time"

// Transfer represents a request to move stock between two branches,
// subject to approval. Stock only moves when the transfer is received.
type Transfer struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	FromBranchID  int64     `json:"from_branch_id"`
	ToBranchID    int64     `json:"to_branch_id"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedBy     int64     `json:"created_by"`
	ResponsibleID *int64    `json:"responsible_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	// Joined fields (not always populated).
	FromBranchName  string         `json:"from_branch_name,omitempty"`
	ToBranchName    string         `json:"to_branch_name,omitempty"`
	CreatedByName   string         `json:"created_by_name,omitempty"`
	ResponsibleName string         `json:"responsible_name,omitempty"`
	Lines           []TransferLine `json:"lines,omitempty"`
}

// TransferLine is one (product, quantity, unit price) entry of a transfer.
// Lines are created with the transfer and immutable afterwards.
type TransferLine struct {
	ID         int64   `json:"id"`
	TransferID int64   `json:"transfer_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`

	// Joined fields (not always populated).
	ProductName string `json:"product_name,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
}

// Transfer statuses.
const (
	TransferPending   = "pending"
	TransferInTransit = "in_transit"
	TransferReceived  = "received"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// transitionSources maps a target status to the statuses it may be
// reached from. Completed and cancelled are terminal.
var transitionSources = map[string][]string{
	TransferInTransit: {TransferPending},
	TransferReceived:  {TransferPending, TransferInTransit},
	TransferCompleted: {TransferReceived},
	TransferCancelled: {TransferPending, TransferInTransit},
}

// LegalTransition reports whether a transfer may move from one status to
// another, independent of who is asking.
func LegalTransition(from, to string) bool {
	for _, s := range transitionSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether a status admits no further transitions.
func TerminalStatus(status string) bool {
	return status == TransferCompleted || status == TransferCancelled
}

// ShareURL builds the shareable handoff reference for a transfer, rendered
// externally as a scannable code.
func (t *Transfer) ShareURL(base string) string {
	return base + "/t/" + t.Reference
}
