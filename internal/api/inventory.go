package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/mabello/bodega/internal/model"
	"github.com/mabello/bodega/internal/store"
)

// InventoryHandler handles inventory overview and direct stock
// adjustment endpoints.
type InventoryHandler struct {
	DB *sql.DB
}

type adjustmentRequest struct {
	ProductID int64 `json:"product_id"`
	BranchID  int64 `json:"branch_id"`
	Quantity  int   `json:"quantity"`
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := store.ListInventory(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if entries == nil {
		entries = []model.InventoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Receive handles POST /api/inventory/receive, crediting stock that
// arrives from outside the branch network (supplier deliveries).
func (h *InventoryHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.Credit(r.Context(), h.DB, req.ProductID, req.BranchID, req.Quantity); err != nil {
		storeError(w, err)
		return
	}

	quantity, err := store.GetQuantity(r.Context(), h.DB, req.ProductID, req.BranchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("stock received", "user", Identity(r.Context()).Username,
		"product", req.ProductID, "branch", req.BranchID, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, map[string]int{"quantity": quantity})
}

// Dispatch handles POST /api/inventory/dispatch, debiting stock that
// leaves the branch network (sales, write-offs).
func (h *InventoryHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.Debit(r.Context(), h.DB, req.ProductID, req.BranchID, req.Quantity); err != nil {
		storeError(w, err)
		return
	}

	quantity, err := store.GetQuantity(r.Context(), h.DB, req.ProductID, req.BranchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("stock dispatched", "user", Identity(r.Context()).Username,
		"product", req.ProductID, "branch", req.BranchID, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, map[string]int{"quantity": quantity})
}
