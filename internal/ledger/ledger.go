// Package ledger is the only writer of ingredient stock balances.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kotpos/api/internal/database"
	"github.com/shopspring/decimal"
)

// StockScale is the number of decimal places kept for stock quantities.
const StockScale = 3

// MaxStock is the largest quantity a NUMERIC(12,3) column holds.
var MaxStock = decimal.RequireFromString("999999999.999")

var (
	ErrNonPositiveQuantity = errors.New("quantity must be > 0")
	ErrIngredientNotFound  = errors.New("ingredient not found")
	ErrQuantityTooLarge    = errors.New("quantity exceeds 999999999.999")
)

// numericOverflow is the Postgres code for a value outside a column's precision.
const numericOverflow = "22003"

// Store is satisfied by *database.Queries.
type Store interface {
	CreditIngredientStock(ctx context.Context, arg database.CreditIngredientStockParams) (database.Ingredient, error)
}

// Credit adds qty to the ingredient's current stock. The increment happens in
// SQL so concurrent credits never overwrite each other. Run it in the same
// transaction that approved the stock addition.
func Credit(ctx context.Context, store Store, ingredientID uuid.UUID, qty decimal.Decimal) (database.Ingredient, error) {
	qty = qty.Round(StockScale)
	if !qty.IsPositive() {
		return database.Ingredient{}, ErrNonPositiveQuantity
	}
	if !FitsStock(qty) {
		return database.Ingredient{}, ErrQuantityTooLarge
	}
	ing, err := store.CreditIngredientStock(ctx, database.CreditIngredientStockParams{
		ID:       ingredientID,
		Quantity: database.DecimalToNumeric(qty),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Ingredient{}, ErrIngredientNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericOverflow {
			return database.Ingredient{}, fmt.Errorf("credit ingredient stock: %w", ErrQuantityTooLarge)
		}
		return database.Ingredient{}, fmt.Errorf("credit ingredient stock: %w", err)
	}
	return ing, nil
}

// FitsStock reports whether d can be stored in a stock column.
func FitsStock(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(MaxStock)
}

// IsLowStock reports whether current is at or below threshold.
func IsLowStock(current, threshold decimal.Decimal) bool {
	return current.LessThanOrEqual(threshold)
}

// IngredientIsLowStock applies IsLowStock to a stored ingredient.
func IngredientIsLowStock(ing database.Ingredient) bool {
	return IsLowStock(database.NumericToDecimal(ing.CurrentStock), database.NumericToDecimal(ing.MinimumThreshold))
}
