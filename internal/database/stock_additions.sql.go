package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const stockAdditionColumns = `id, ingredient_id, quantity, cost_per_unit, total_cost, status, added_by, approved_by, reason, decided_at, created_at, updated_at`

func scanStockAddition(row interface{ Scan(...any) error }) (StockAddition, error) {
	var i StockAddition
	err := row.Scan(
		&i.ID,
		&i.IngredientID,
		&i.Quantity,
		&i.CostPerUnit,
		&i.TotalCost,
		&i.Status,
		&i.AddedBy,
		&i.ApprovedBy,
		&i.Reason,
		&i.DecidedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const approveStockAddition = `-- name: ApproveStockAddition :one
UPDATE stock_additions
SET status = 'approved', approved_by = $2, decided_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + stockAdditionColumns

type ApproveStockAdditionParams struct {
	ID         uuid.UUID `json:"id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
}

// ApproveStockAddition returns pgx.ErrNoRows unless the row was pending.
func (q *Queries) ApproveStockAddition(ctx context.Context, arg ApproveStockAdditionParams) (StockAddition, error) {
	return scanStockAddition(q.db.QueryRow(ctx, approveStockAddition, arg.ID, arg.ApprovedBy))
}

const createStockAddition = `-- name: CreateStockAddition :one
INSERT INTO stock_additions (ingredient_id, quantity, cost_per_unit, total_cost, added_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + stockAdditionColumns

type CreateStockAdditionParams struct {
	IngredientID uuid.UUID      `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
	CostPerUnit  pgtype.Numeric `json:"cost_per_unit"`
	TotalCost    pgtype.Numeric `json:"total_cost"`
	AddedBy      uuid.UUID      `json:"added_by"`
}

func (q *Queries) CreateStockAddition(ctx context.Context, arg CreateStockAdditionParams) (StockAddition, error) {
	row := q.db.QueryRow(ctx, createStockAddition,
		arg.IngredientID,
		arg.Quantity,
		arg.CostPerUnit,
		arg.TotalCost,
		arg.AddedBy,
	)
	return scanStockAddition(row)
}

const getStockAddition = `-- name: GetStockAddition :one
SELECT ` + stockAdditionColumns + ` FROM stock_additions
WHERE id = $1
`

func (q *Queries) GetStockAddition(ctx context.Context, id uuid.UUID) (StockAddition, error) {
	return scanStockAddition(q.db.QueryRow(ctx, getStockAddition, id))
}

const listStockAdditions = `-- name: ListStockAdditions :many
SELECT s.id, s.ingredient_id, s.quantity, s.cost_per_unit, s.total_cost, s.status, s.added_by,
       s.approved_by, s.reason, s.decided_at, s.created_at, s.updated_at,
       i.name AS ingredient_name, i.unit AS ingredient_unit, u.username AS added_by_username
FROM stock_additions s
JOIN ingredients i ON i.id = s.ingredient_id
JOIN users u ON u.id = s.added_by
WHERE ($1::approval_status IS NULL OR s.status = $1::approval_status)
ORDER BY s.created_at DESC
`

type ListStockAdditionsRow struct {
	StockAddition   StockAddition `json:"stock_addition"`
	IngredientName  string        `json:"ingredient_name"`
	IngredientUnit  string        `json:"ingredient_unit"`
	AddedByUsername string        `json:"added_by_username"`
}

func (q *Queries) ListStockAdditions(ctx context.Context, status NullApprovalStatus) ([]ListStockAdditionsRow, error) {
	rows, err := q.db.Query(ctx, listStockAdditions, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListStockAdditionsRow{}
	for rows.Next() {
		var i ListStockAdditionsRow
		s := &i.StockAddition
		if err := rows.Scan(
			&s.ID,
			&s.IngredientID,
			&s.Quantity,
			&s.CostPerUnit,
			&s.TotalCost,
			&s.Status,
			&s.AddedBy,
			&s.ApprovedBy,
			&s.Reason,
			&s.DecidedAt,
			&s.CreatedAt,
			&s.UpdatedAt,
			&i.IngredientName,
			&i.IngredientUnit,
			&i.AddedByUsername,
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

const rejectStockAddition = `-- name: RejectStockAddition :one
UPDATE stock_additions
SET status = 'rejected', approved_by = $2, reason = $3, decided_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + stockAdditionColumns

type RejectStockAdditionParams struct {
	ID         uuid.UUID `json:"id"`
	ApprovedBy uuid.UUID `json:"approved_by"`
	Reason     string    `json:"reason"`
}

func (q *Queries) RejectStockAddition(ctx context.Context, arg RejectStockAdditionParams) (StockAddition, error) {
	return scanStockAddition(q.db.QueryRow(ctx, rejectStockAddition, arg.ID, arg.ApprovedBy, arg.Reason))
}
