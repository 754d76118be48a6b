package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mabello/bodega/internal/model"
	"github.com/mabello/bodega/internal/store"
)

// BranchesHandler handles branch management endpoints.
type BranchesHandler struct {
	DB *sql.DB
}

type branchRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Address string `json:"address"`
	Type    string `json:"type"`
}

// List handles GET /api/branches.
func (h *BranchesHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := store.ListBranches(r.Context(), h.DB, r.URL.Query().Get("type"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list branches")
		return
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	jsonResponse(w, http.StatusOK, branches)
}

// Get handles GET /api/branches/{id}.
func (h *BranchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if branch == nil || branch.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "branch not found")
		return
	}
	jsonResponse(w, http.StatusOK, branch)
}

// Create handles POST /api/branches.
func (h *BranchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	branch, err := store.CreateBranch(r.Context(), h.DB, req.Name, req.Country, req.Address, req.Type)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("branch created", "user", Identity(r.Context()).Username,
		"branch", branch.Name, "type", branch.Type)
	jsonResponse(w, http.StatusCreated, branch)
}

// Update handles PUT /api/branches/{id}.
func (h *BranchesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateBranch(r.Context(), h.DB, id, req.Name, req.Country, req.Address, req.Type); err != nil {
		storeError(w, err)
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil || branch == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, branch)
}

// Delete handles DELETE /api/branches/{id}.
func (h *BranchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	if err := store.DeleteBranch(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	slog.Info("branch deleted", "user", Identity(r.Context()).Username, "branch", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "branch deleted"})
}

// Inventory handles GET /api/branches/{id}/inventory.
func (h *BranchesHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	branch, err := store.GetBranch(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if branch == nil || branch.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "branch not found")
		return
	}

	entries, err := store.GetBranchInventory(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get branch inventory")
		return
	}
	if entries == nil {
		entries = []model.InventoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
