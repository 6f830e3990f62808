package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const ingredientColumns = `id, name, unit, current_stock, minimum_threshold, cost_per_unit, created_at, updated_at`

func scanIngredient(row interface{ Scan(...any) error }) (Ingredient, error) {
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.CurrentStock,
		&i.MinimumThreshold,
		&i.CostPerUnit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryIngredients(ctx context.Context, sql string, args ...interface{}) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Ingredient{}
	for rows.Next() {
		i, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (name, unit, current_stock, minimum_threshold, cost_per_unit)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + ingredientColumns

type CreateIngredientParams struct {
	Name             string         `json:"name"`
	Unit             string         `json:"unit"`
	CurrentStock     pgtype.Numeric `json:"current_stock"`
	MinimumThreshold pgtype.Numeric `json:"minimum_threshold"`
	CostPerUnit      pgtype.Numeric `json:"cost_per_unit"`
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, createIngredient,
		arg.Name,
		arg.Unit,
		arg.CurrentStock,
		arg.MinimumThreshold,
		arg.CostPerUnit,
	)
	return scanIngredient(row)
}

const creditIngredientStock = `-- name: CreditIngredientStock :one
UPDATE ingredients
SET current_stock = current_stock + $2, updated_at = now()
WHERE id = $1
RETURNING ` + ingredientColumns

type CreditIngredientStockParams struct {
	ID       uuid.UUID      `json:"id"`
	Quantity pgtype.Numeric `json:"quantity"`
}

// CreditIngredientStock increments stock in a single statement.
func (q *Queries) CreditIngredientStock(ctx context.Context, arg CreditIngredientStockParams) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, creditIngredientStock, arg.ID, arg.Quantity))
}

const getIngredient = `-- name: GetIngredient :one
SELECT ` + ingredientColumns + ` FROM ingredients
WHERE id = $1
`

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	return scanIngredient(q.db.QueryRow(ctx, getIngredient, id))
}

const listIngredients = `-- name: ListIngredients :many
SELECT ` + ingredientColumns + ` FROM ingredients
ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	return q.queryIngredients(ctx, listIngredients)
}

const listLowStockIngredients = `-- name: ListLowStockIngredients :many
SELECT ` + ingredientColumns + ` FROM ingredients
WHERE current_stock <= minimum_threshold
ORDER BY name
`

func (q *Queries) ListLowStockIngredients(ctx context.Context) ([]Ingredient, error) {
	return q.queryIngredients(ctx, listLowStockIngredients)
}
