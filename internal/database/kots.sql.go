package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const kotColumns = `id, kot_number, customer_name, type, status, order_time, expected_time, total_amount, created_by, processed_by, created_at, updated_at`

func scanKot(row interface{ Scan(...any) error }) (Kot, error) {
	var i Kot
	err := row.Scan(
		&i.ID,
		&i.KotNumber,
		&i.CustomerName,
		&i.Type,
		&i.Status,
		&i.OrderTime,
		&i.ExpectedTime,
		&i.TotalAmount,
		&i.CreatedBy,
		&i.ProcessedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const lockSequence = `-- name: LockSequence :exec
SELECT pg_advisory_xact_lock(hashtext($1))
`

// LockSequence takes a transaction-scoped advisory lock for a numbering
// scope. It is released on commit or rollback.
func (q *Queries) LockSequence(ctx context.Context, scope string) error {
	_, err := q.db.Exec(ctx, lockSequence, scope)
	return err
}

const getLastKotNumber = `-- name: GetLastKotNumber :one
SELECT kot_number FROM kots
WHERE type = $1
ORDER BY created_at DESC, kot_number DESC
LIMIT 1
`

func (q *Queries) GetLastKotNumber(ctx context.Context, kotType KotType) (string, error) {
	row := q.db.QueryRow(ctx, getLastKotNumber, kotType)
	var kotNumber string
	err := row.Scan(&kotNumber)
	return kotNumber, err
}

const createKot = `-- name: CreateKot :one
INSERT INTO kots (kot_number, customer_name, type, order_time, expected_time, total_amount, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + kotColumns

type CreateKotParams struct {
	KotNumber    string         `json:"kot_number"`
	CustomerName string         `json:"customer_name"`
	Type         KotType        `json:"type"`
	OrderTime    time.Time      `json:"order_time"`
	ExpectedTime time.Time      `json:"expected_time"`
	TotalAmount  pgtype.Numeric `json:"total_amount"`
	CreatedBy    uuid.UUID      `json:"created_by"`
}

func (q *Queries) CreateKot(ctx context.Context, arg CreateKotParams) (Kot, error) {
	row := q.db.QueryRow(ctx, createKot,
		arg.KotNumber,
		arg.CustomerName,
		arg.Type,
		arg.OrderTime,
		arg.ExpectedTime,
		arg.TotalAmount,
		arg.CreatedBy,
	)
	return scanKot(row)
}

const createKotItem = `-- name: CreateKotItem :one
INSERT INTO kot_items (kot_id, line_no, menu_item_id, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, kot_id, line_no, menu_item_id, quantity, unit_price, total_price
`

type CreateKotItemParams struct {
	KotID      uuid.UUID      `json:"kot_id"`
	LineNo     int32          `json:"line_no"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

func (q *Queries) CreateKotItem(ctx context.Context, arg CreateKotItemParams) (KotItem, error) {
	row := q.db.QueryRow(ctx, createKotItem,
		arg.KotID,
		arg.LineNo,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
		arg.TotalPrice,
	)
	var i KotItem
	err := row.Scan(
		&i.ID,
		&i.KotID,
		&i.LineNo,
		&i.MenuItemID,
		&i.Quantity,
		&i.UnitPrice,
		&i.TotalPrice,
	)
	return i, err
}

const getKot = `-- name: GetKot :one
SELECT ` + kotColumns + ` FROM kots
WHERE id = $1
`

func (q *Queries) GetKot(ctx context.Context, id uuid.UUID) (Kot, error) {
	return scanKot(q.db.QueryRow(ctx, getKot, id))
}

const getKotForUpdate = `-- name: GetKotForUpdate :one
SELECT ` + kotColumns + ` FROM kots
WHERE id = $1
FOR UPDATE
`

// GetKotForUpdate row-locks the KOT until the surrounding transaction ends.
func (q *Queries) GetKotForUpdate(ctx context.Context, id uuid.UUID) (Kot, error) {
	return scanKot(q.db.QueryRow(ctx, getKotForUpdate, id))
}

const listKots = `-- name: ListKots :many
SELECT k.id, k.kot_number, k.customer_name, k.type, k.status, k.order_time, k.expected_time,
       k.total_amount, k.created_by, k.processed_by, k.created_at, k.updated_at,
       u.username AS created_by_username
FROM kots k
JOIN users u ON u.id = k.created_by
WHERE ($1::kot_status IS NULL OR k.status = $1::kot_status)
  AND ($2::kot_type IS NULL OR k.type = $2::kot_type)
ORDER BY k.created_at DESC
LIMIT $3
`

type ListKotsParams struct {
	Status NullKotStatus `json:"status"`
	Type   NullKotType   `json:"type"`
	Limit  int32         `json:"limit"`
}

type ListKotsRow struct {
	Kot               Kot    `json:"kot"`
	CreatedByUsername string `json:"created_by_username"`
}

func (q *Queries) ListKots(ctx context.Context, arg ListKotsParams) ([]ListKotsRow, error) {
	rows, err := q.db.Query(ctx, listKots, arg.Status, arg.Type, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListKotsRow{}
	for rows.Next() {
		var i ListKotsRow
		if err := rows.Scan(
			&i.Kot.ID,
			&i.Kot.KotNumber,
			&i.Kot.CustomerName,
			&i.Kot.Type,
			&i.Kot.Status,
			&i.Kot.OrderTime,
			&i.Kot.ExpectedTime,
			&i.Kot.TotalAmount,
			&i.Kot.CreatedBy,
			&i.Kot.ProcessedBy,
			&i.Kot.CreatedAt,
			&i.Kot.UpdatedAt,
			&i.CreatedByUsername,
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

const listKotItemsByKotIDs = `-- name: ListKotItemsByKotIDs :many
SELECT ki.id, ki.kot_id, ki.line_no, ki.menu_item_id, ki.quantity, ki.unit_price, ki.total_price,
       m.name AS menu_item_name
FROM kot_items ki
JOIN menu_items m ON m.id = ki.menu_item_id
WHERE ki.kot_id = ANY($1::uuid[])
ORDER BY ki.kot_id, ki.line_no
`

type ListKotItemsByKotIDsRow struct {
	KotItem      KotItem `json:"kot_item"`
	MenuItemName string  `json:"menu_item_name"`
}

func (q *Queries) ListKotItemsByKotIDs(ctx context.Context, kotIDs []uuid.UUID) ([]ListKotItemsByKotIDsRow, error) {
	rows, err := q.db.Query(ctx, listKotItemsByKotIDs, kotIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListKotItemsByKotIDsRow{}
	for rows.Next() {
		var i ListKotItemsByKotIDsRow
		if err := rows.Scan(
			&i.KotItem.ID,
			&i.KotItem.KotID,
			&i.KotItem.LineNo,
			&i.KotItem.MenuItemID,
			&i.KotItem.Quantity,
			&i.KotItem.UnitPrice,
			&i.KotItem.TotalPrice,
			&i.MenuItemName,
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

const markKotReversed = `-- name: MarkKotReversed :one
UPDATE kots
SET status = 'reversed'
WHERE id = $1
RETURNING ` + kotColumns

// MarkKotReversed touches nothing but the status column.
func (q *Queries) MarkKotReversed(ctx context.Context, id uuid.UUID) (Kot, error) {
	return scanKot(q.db.QueryRow(ctx, markKotReversed, id))
}

const updateKotStatus = `-- name: UpdateKotStatus :one
UPDATE kots
SET status = $2, processed_by = $3, updated_at = now()
WHERE id = $1 AND status = $4
RETURNING ` + kotColumns

type UpdateKotStatusParams struct {
	ID            uuid.UUID   `json:"id"`
	Status        KotStatus   `json:"status"`
	ProcessedBy   pgtype.UUID `json:"processed_by"`
	CurrentStatus KotStatus   `json:"current_status"`
}

// UpdateKotStatus only succeeds while the row still holds CurrentStatus;
// otherwise it returns pgx.ErrNoRows.
func (q *Queries) UpdateKotStatus(ctx context.Context, arg UpdateKotStatusParams) (Kot, error) {
	row := q.db.QueryRow(ctx, updateKotStatus,
		arg.ID,
		arg.Status,
		arg.ProcessedBy,
		arg.CurrentStatus,
	)
	return scanKot(row)
}
