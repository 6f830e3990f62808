package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, description, price, category, is_active, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Price,
		&i.Category,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const addMenuItemIngredient = `-- name: AddMenuItemIngredient :one
INSERT INTO menu_item_ingredients (menu_item_id, ingredient_id, quantity)
VALUES ($1, $2, $3)
RETURNING id, menu_item_id, ingredient_id, quantity
`

type AddMenuItemIngredientParams struct {
	MenuItemID   uuid.UUID      `json:"menu_item_id"`
	IngredientID uuid.UUID      `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

func (q *Queries) AddMenuItemIngredient(ctx context.Context, arg AddMenuItemIngredientParams) (MenuItemIngredient, error) {
	row := q.db.QueryRow(ctx, addMenuItemIngredient, arg.MenuItemID, arg.IngredientID, arg.Quantity)
	var i MenuItemIngredient
	err := row.Scan(
		&i.ID,
		&i.MenuItemID,
		&i.IngredientID,
		&i.Quantity,
	)
	return i, err
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, description, price, category, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	Category    KotType        `json:"category"`
	IsActive    bool           `json:"is_active"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.IsActive,
	)
	return scanMenuItem(row)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE ($1::kot_type IS NULL OR category = $1::kot_type)
ORDER BY name
`

func (q *Queries) ListMenuItems(ctx context.Context, category NullKotType) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
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
