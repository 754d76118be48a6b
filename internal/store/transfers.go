package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mabello/bodega/internal/model"
)

// The transfer state machine. A transfer is created pending, moves
// forward through in_transit and received to completed, or is cancelled
// from pending/in_transit. Stock moves exactly once, when the transfer
// reaches received; creation and cancellation never touch the ledger.

// CreateTransfer validates and persists a new pending transfer with its
// lines in one transaction. Every line's availability at the source
// branch is checked up front; nothing is persisted if any check fails.
func CreateTransfer(ctx context.Context, db *sql.DB, fromBranchID, toBranchID int64, notes string, createdBy int64, lines []model.TransferLine) (*model.Transfer, error) {
	if fromBranchID == toBranchID {
		return nil, fmt.Errorf("%w: source and destination branch must differ", ErrValidation)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: transfer needs at least one line", ErrValidation)
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: line quantity must be at least 1", ErrValidation)
		}
		if line.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: line unit price must not be negative", ErrValidation)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, branchID := range []int64{fromBranchID, toBranchID} {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM branches WHERE id = ? AND deleted_at IS NULL`, branchID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: branch %d", ErrNotFound, branchID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking branch: %w", err)
		}
	}

	// Availability check per line. Creation does not move stock, so this
	// is advisory; receipt re-validates with a guarded write.
	for _, line := range lines {
		var name string
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM products WHERE id = ? AND deleted_at IS NULL`, line.ProductID,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking product: %w", err)
		}

		var available int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(quantity, 0) FROM inventory WHERE product_id = ? AND branch_id = ?`,
			line.ProductID, fromBranchID,
		).Scan(&available)
		if err == sql.ErrNoRows {
			available = 0
		} else if err != nil {
			return nil, fmt.Errorf("checking availability: %w", err)
		}
		if available < line.Quantity {
			return nil, fmt.Errorf("%w: %s has %d at source, requested %d",
				ErrInsufficientStock, name, available, line.Quantity)
		}
	}

	reference := uuid.NewString()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (reference, from_branch_id, to_branch_id, notes, created_by)
		 VALUES (?, ?, ?, ?, ?)`,
		reference, fromBranchID, toBranchID, notes, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfer: %w", err)
	}
	transferID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transfer id: %w", err)
	}

	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transfer_lines (transfer_id, product_id, quantity, unit_price)
			 VALUES (?, ?, ?, ?)`,
			transferID, line.ProductID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("creating transfer line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	return GetTransferDetail(ctx, db, transferID)
}

// AdvanceTransfer moves a transfer to the next status the acting identity
// may invoke and stamps it as responsible. When the new status is
// received, every line is applied through the stock adjustment service
// inside the same transaction: a single failing line rolls back the whole
// movement and the status change.
func AdvanceTransfer(ctx context.Context, db *sql.DB, id int64, actor *model.User) (*model.Transfer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := getTransferTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	next, ok := model.NextForward(actor, t)
	if !ok {
		return nil, fmt.Errorf("%w: cannot advance transfer %d from %s", ErrIllegalTransition, id, t.Status)
	}

	// Guarded against a concurrent transition: only one advance can win.
	result, err := tx.ExecContext(ctx,
		`UPDATE transfers SET status = ?, responsible_id = ? WHERE id = ? AND status = ?`,
		next, actor.ID, id, t.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("updating transfer status: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("updating transfer status: %w", err)
	} else if affected == 0 {
		return nil, fmt.Errorf("%w: transfer %d changed concurrently", ErrIllegalTransition, id)
	}

	if next == model.TransferReceived {
		lines, err := getTransferLinesTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			if err := debitTx(ctx, tx, line.ProductID, t.FromBranchID, line.Quantity); err != nil {
				return nil, fmt.Errorf("applying line for product %d: %w", line.ProductID, err)
			}
			if err := creditTx(ctx, tx, line.ProductID, t.ToBranchID, line.Quantity); err != nil {
				return nil, fmt.Errorf("applying line for product %d: %w", line.ProductID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer advance: %w", err)
	}

	return GetTransferDetail(ctx, db, id)
}

// CancelTransfer cancels a pending or in-transit transfer. No inventory
// is touched, since stock only moves at receipt. Cancelling an already
// cancelled transfer is a no-op returning the terminal state.
func CancelTransfer(ctx context.Context, db *sql.DB, id int64, actor *model.User) (*model.Transfer, error) {
	t, err := GetTransferDetail(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if t.Status == model.TransferCancelled {
		return t, nil
	}

	if !model.CanTransition(actor, t, model.TransferCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel transfer %d from %s", ErrIllegalTransition, id, t.Status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE transfers SET status = ?, responsible_id = ? WHERE id = ? AND status = ?`,
		model.TransferCancelled, actor.ID, id, t.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelling transfer: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("cancelling transfer: %w", err)
	} else if affected == 0 {
		return nil, fmt.Errorf("%w: transfer %d changed concurrently", ErrIllegalTransition, id)
	}

	return GetTransferDetail(ctx, db, id)
}

// querier covers *sql.DB and *sql.Tx for the read helpers.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const transferColumns = `
	t.id, t.reference, t.from_branch_id, t.to_branch_id, t.status, t.notes,
	t.created_by, t.responsible_id, t.created_at,
	fb.name, tb.name, cu.username, COALESCE(ru.username, '')`

const transferJoins = `
	FROM transfers t
	JOIN branches fb ON fb.id = t.from_branch_id
	JOIN branches tb ON tb.id = t.to_branch_id
	JOIN users cu ON cu.id = t.created_by
	LEFT JOIN users ru ON ru.id = t.responsible_id`

func getTransferTx(ctx context.Context, q querier, id int64) (*model.Transfer, error) {
	row := q.QueryRowContext(ctx,
		`SELECT`+transferColumns+transferJoins+` WHERE t.id = ?`, id)
	return scanTransfer(row)
}

func scanTransfer(row *sql.Row) (*model.Transfer, error) {
	t := &model.Transfer{}
	var notes sql.NullString
	err := row.Scan(&t.ID, &t.Reference, &t.FromBranchID, &t.ToBranchID, &t.Status, &notes,
		&t.CreatedBy, &t.ResponsibleID, &t.CreatedAt,
		&t.FromBranchName, &t.ToBranchName, &t.CreatedByName, &t.ResponsibleName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transfer", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	t.Notes = notes.String
	return t, nil
}

func getTransferLinesTx(ctx context.Context, q querier, transferID int64) ([]model.TransferLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT l.id, l.transfer_id, l.product_id, l.quantity, l.unit_price, p.name, p.code
		 FROM transfer_lines l
		 JOIN products p ON p.id = l.product_id
		 WHERE l.transfer_id = ?
		 ORDER BY l.id`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting transfer lines: %w", err)
	}
	defer rows.Close()

	var lines []model.TransferLine
	for rows.Next() {
		var l model.TransferLine
		if err := rows.Scan(&l.ID, &l.TransferID, &l.ProductID, &l.Quantity, &l.UnitPrice,
			&l.ProductName, &l.ProductCode); err != nil {
			return nil, fmt.Errorf("scanning transfer line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetTransferDetail returns a transfer with its lines, resolved branch
// and product names, and the display names of the involved identities.
func GetTransferDetail(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	t, err := getTransferTx(ctx, db, id)
	if err != nil {
		return nil, err
	}
	lines, err := getTransferLinesTx(ctx, db, id)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return t, nil
}

// GetTransferByReference resolves a transfer from its shareable handoff
// reference.
func GetTransferByReference(ctx context.Context, db *sql.DB, reference string) (*model.Transfer, error) {
	row := db.QueryRowContext(ctx,
		`SELECT`+transferColumns+transferJoins+` WHERE t.reference = ?`, reference)
	t, err := scanTransfer(row)
	if err != nil {
		return nil, err
	}
	return GetTransferDetail(ctx, db, t.ID)
}

// ListTransfers returns transfers newest first, optionally filtered by
// status and/or involved branch.
func ListTransfers(ctx context.Context, db *sql.DB, status string, branchID int64) ([]model.Transfer, error) {
	query := `SELECT` + transferColumns + transferJoins + ` WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}
	if branchID > 0 {
		query += ` AND (t.from_branch_id = ? OR t.to_branch_id = ?)`
		args = append(args, branchID, branchID)
	}

	query += ` ORDER BY t.created_at DESC, t.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		var notes sql.NullString
		if err := rows.Scan(&t.ID, &t.Reference, &t.FromBranchID, &t.ToBranchID, &t.Status, &notes,
			&t.CreatedBy, &t.ResponsibleID, &t.CreatedAt,
			&t.FromBranchName, &t.ToBranchName, &t.CreatedByName, &t.ResponsibleName); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		t.Notes = notes.String
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// ListPendingTransfers returns the outstanding pending transfers, newest
// first, for the notification queue.
func ListPendingTransfers(ctx context.Context, db *sql.DB) ([]model.Transfer, error) {
	return ListTransfers(ctx, db, model.TransferPending, 0)
}

// CountPendingTransfers returns the pending-queue size for badge display.
func CountPendingTransfers(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfers WHERE status = ?`, model.TransferPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending transfers: %w", err)
	}
	return count, nil
}

// CountTransfersByStatus returns per-status transfer counts for the
// summary view.
func CountTransfersByStatus(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM transfers GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting transfers: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		model.TransferPending:   0,
		model.TransferInTransit: 0,
		model.TransferReceived:  0,
		model.TransferCompleted: 0,
		model.TransferCancelled: 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning transfer count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
