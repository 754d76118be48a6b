package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mabello/bodega/internal/model"
	"github.com/mabello/bodega/internal/store"
)

// TransfersHandler handles the transfer lifecycle endpoints.
type TransfersHandler struct {
	DB      *sql.DB
	BaseURL string
}

type createTransferRequest struct {
	FromBranchID int64                 `json:"from_branch_id"`
	ToBranchID   int64                 `json:"to_branch_id"`
	Notes        string                `json:"notes"`
	Lines        []transferLineRequest `json:"lines"`
}

type transferLineRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// transferResponse decorates a transfer with the shareable handoff URL
// and the actions the requesting identity may take on it.
type transferResponse struct {
	*model.Transfer
	ShareURL   string `json:"share_url"`
	NextStatus string `json:"next_status,omitempty"`
	CanCancel  bool   `json:"can_cancel"`
}

func (h *TransfersHandler) respond(user *model.User, t *model.Transfer) transferResponse {
	resp := transferResponse{
		Transfer: t,
		ShareURL: t.ShareURL(h.BaseURL),
	}
	if next, ok := model.NextForward(user, t); ok {
		resp.NextStatus = next
	}
	resp.CanCancel = model.CanTransition(user, t, model.TransferCancelled)
	return resp
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := Identity(r.Context())

	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FromBranchID <= 0 || req.ToBranchID <= 0 {
		jsonError(w, http.StatusBadRequest, "from_branch_id and to_branch_id are required")
		return
	}

	lines := make([]model.TransferLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, model.TransferLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	transfer, err := store.CreateTransfer(r.Context(), h.DB, req.FromBranchID, req.ToBranchID, req.Notes, user.ID, lines)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer created", "user", user.Username, "transfer", transfer.ID,
		"from", transfer.FromBranchName, "to", transfer.ToBranchName, "lines", len(transfer.Lines))
	jsonResponse(w, http.StatusCreated, h.respond(user, transfer))
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := store.GetTransferDetail(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.respond(Identity(r.Context()), transfer))
}

// GetByReference handles GET /api/transfers/ref/{reference}, resolving a
// scanned handoff code.
func (h *TransfersHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	transfer, err := store.GetTransferByReference(r.Context(), h.DB, r.PathValue("reference"))
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.respond(Identity(r.Context()), transfer))
}

// Advance handles POST /api/transfers/{id}/advance.
func (h *TransfersHandler) Advance(w http.ResponseWriter, r *http.Request) {
	user := Identity(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := store.AdvanceTransfer(r.Context(), h.DB, id, user)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer advanced", "user", user.Username, "transfer", transfer.ID, "status", transfer.Status)
	jsonResponse(w, http.StatusOK, h.respond(user, transfer))
}

// Cancel handles POST /api/transfers/{id}/cancel.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := Identity(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	transfer, err := store.CancelTransfer(r.Context(), h.DB, id, user)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("transfer cancelled", "user", user.Username, "transfer", transfer.ID)
	jsonResponse(w, http.StatusOK, h.respond(user, transfer))
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var branchID int64
	if v := r.URL.Query().Get("branch_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid branch_id")
			return
		}
		branchID = id
	}

	transfers, err := store.ListTransfers(r.Context(), h.DB, status, branchID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// ListPending handles GET /api/transfers/pending, the notification queue.
func (h *TransfersHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	transfers, err := store.ListPendingTransfers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list pending transfers")
		return
	}

	user := Identity(r.Context())
	responses := make([]transferResponse, 0, len(transfers))
	for i := range transfers {
		responses = append(responses, h.respond(user, &transfers[i]))
	}
	jsonResponse(w, http.StatusOK, responses)
}

// CountPending handles GET /api/transfers/pending/count for badge display.
func (h *TransfersHandler) CountPending(w http.ResponseWriter, r *http.Request) {
	count, err := store.CountPendingTransfers(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to count pending transfers")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"count": count})
}

// Summary handles GET /api/transfers/summary with per-status counts.
func (h *TransfersHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := store.CountTransfersByStatus(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to summarize transfers")
		return
	}
	jsonResponse(w, http.StatusOK, counts)
}
