package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderReversalColumns = `id, kot_id, reason, status, requested_by, approved_by, rejection_reason, decided_at, created_at, updated_at`

func scanOrderReversal(row interface{ Scan(...any) error }) (OrderReversal, error) {
	var i OrderReversal
	err := row.Scan(
		&i.ID,
		&i.KotID,
		&i.Reason,
		&i.Status,
		&i.RequestedBy,
		&i.ApprovedBy,
		&i.RejectionReason,
		&i.DecidedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const approveOrderReversal = `-- name: ApproveOrderReversal :one
UPDATE order_reversals
SET status = 'approved', approved_by = $2, decided_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + orderReversalColumns

type ApproveOrderReversalParams struct {
	ID         uuid.UUID `json:"id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

func (q *Queries) ApproveOrderReversal(ctx context.Context, arg ApproveOrderReversalParams) (OrderReversal, error) {
	return scanOrderReversal(q.db.QueryRow(ctx, approveOrderReversal, arg.ID, arg.ApprovedBy))
}

const createOrderReversal = `-- name: CreateOrderReversal :one
INSERT INTO order_reversals (kot_id, reason, requested_by)
VALUES ($1, $2, $3)
RETURNING ` + orderReversalColumns

type CreateOrderReversalParams struct {
	KotID       uuid.UUID `json:"kot_id"`
	Reason      string    `json:"reason"`
	RequestedBy uuid.UUID `json:"requested_by"`
}

func (q *Queries) CreateOrderReversal(ctx context.Context, arg CreateOrderReversalParams) (OrderReversal, error) {
	return scanOrderReversal(q.db.QueryRow(ctx, createOrderReversal, arg.KotID, arg.Reason, arg.RequestedBy))
}

const getOrderReversal = `-- name: GetOrderReversal :one
SELECT ` + orderReversalColumns + ` FROM order_reversals
WHERE id = $1
`

func (q *Queries) GetOrderReversal(ctx context.Context, id uuid.UUID) (OrderReversal, error) {
	return scanOrderReversal(q.db.QueryRow(ctx, getOrderReversal, id))
}

const hasPendingReversal = `-- name: HasPendingReversal :one
SELECT EXISTS (
    SELECT 1 FROM order_reversals WHERE kot_id = $1 AND status = 'pending'
)
`

func (q *Queries) HasPendingReversal(ctx context.Context, kotID uuid.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, hasPendingReversal, kotID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listOrderReversals = `-- name: ListOrderReversals :many
SELECT r.id, r.kot_id, r.reason, r.status, r.requested_by, r.approved_by, r.rejection_reason,
       r.decided_at, r.created_at, r.updated_at,
       k.kot_number, u.username AS requested_by_username
FROM order_reversals r
JOIN kots k ON k.id = r.kot_id
JOIN users u ON u.id = r.requested_by
WHERE ($1::approval_status IS NULL OR r.status = $1::approval_status)
ORDER BY r.created_at DESC
`

type ListOrderReversalsRow struct {
	OrderReversal       OrderReversal `json:"order_reversal"`
	KotNumber           string        `json:"kot_number"`
	RequestedByUsername string        `json:"requested_by_username"`
}

func (q *Queries) ListOrderReversals(ctx context.Context, status NullApprovalStatus) ([]ListOrderReversalsRow, error) {
	rows, err := q.db.Query(ctx, listOrderReversals, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderReversalsRow{}
	for rows.Next() {
		var i ListOrderReversalsRow
		r := &i.OrderReversal
		if err := rows.Scan(
			&r.ID,
			&r.KotID,
			&r.Reason,
			&r.Status,
			&r.RequestedBy,
			&r.ApprovedBy,
			&r.RejectionReason,
			&r.DecidedAt,
			&r.CreatedAt,
			&r.UpdatedAt,
			&i.KotNumber,
			&i.RequestedByUsername,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const rejectOrderReversal = `-- name: RejectOrderReversal :one
UPDATE order_reversals
SET status = 'rejected', approved_by = $2, rejection_reason = $3, decided_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + orderReversalColumns

type RejectOrderReversalParams struct {
	ID              uuid.UUID   `json:"id"`
	ApprovedBy      uuid.UUID   `json:"approved_by"`
	RejectionReason pgtype.Text `json:"rejection_reason"`
}

func (q *Queries) RejectOrderReversal(ctx context.Context, arg RejectOrderReversalParams) (OrderReversal, error) {
	return scanOrderReversal(q.db.QueryRow(ctx, rejectOrderReversal, arg.ID, arg.ApprovedBy, arg.RejectionReason))
}
