package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/ledger"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/shopspring/decimal"
)

// IngredientStore is satisfied by *database.Queries.
type IngredientStore interface {
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	ListLowStockIngredients(ctx context.Context) ([]database.Ingredient, error)
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
}

// IngredientHandler handles ingredient master data and stock levels.
type IngredientHandler struct {
	store IngredientStore
}

func NewIngredientHandler(store IngredientStore) *IngredientHandler {
	return &IngredientHandler{store: store}
}

// RegisterRoutes registers ingredient endpoints, mounted at /ingredients.
func (h *IngredientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.With(middleware.RequireRole(enum.LowStockViewers...)).Get("/low-stock", h.LowStock)
	r.With(middleware.RequireRole(enum.Admins...)).Post("/", h.Create)
}

// --- Request / Response types ---

type createIngredientRequest struct {
	Name             string          `json:"name"`
	Unit             string          `json:"unit"`
	CurrentStock     decimal.Decimal `json:"currentStock"`
	MinimumThreshold decimal.Decimal `json:"minimumThreshold"`
	CostPerUnit      decimal.Decimal `json:"costPerUnit"`
}

type ingredientResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit"`
	CurrentStock     string    `json:"currentStock"`
	MinimumThreshold string    `json:"minimumThreshold"`
	CostPerUnit      string    `json:"costPerUnit"`
	IsLowStock       bool      `json:"isLowStock"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// --- Handlers ---

// List handles GET /ingredients.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context())
	if err != nil {
		writeInternal(w, "list ingredients", err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponses(ingredients))
}

// LowStock handles GET /ingredients/low-stock: stock at or below threshold.
func (h *IngredientHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListLowStockIngredients(r.Context())
	if err != nil {
		writeInternal(w, "list low stock ingredients", err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponses(ingredients))
}

// Create handles POST /ingredients.
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	stock := req.CurrentStock.Round(ledger.StockScale)
	threshold := req.MinimumThreshold.Round(ledger.StockScale)
	cost := req.CostPerUnit.Round(billing.MoneyScale)
	switch {
	case req.Name == "":
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	case req.Unit == "":
		writeMessage(w, http.StatusBadRequest, "unit is required")
		return
	case stock.IsNegative(), threshold.IsNegative():
		writeMessage(w, http.StatusBadRequest, "stock quantities must be >= 0")
		return
	case !ledger.FitsStock(stock), !ledger.FitsStock(threshold):
		writeMessage(w, http.StatusBadRequest, service.ErrStockTooLarge.Error())
		return
	case cost.IsNegative():
		writeMessage(w, http.StatusBadRequest, "costPerUnit must be >= 0")
		return
	case !billing.FitsMoney(cost):
		writeMessage(w, http.StatusBadRequest, service.ErrAmountTooLarge.Error())
		return
	}

	ingredient, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		Name:             req.Name,
		Unit:             req.Unit,
		CurrentStock:     database.DecimalToNumeric(stock),
		MinimumThreshold: database.DecimalToNumeric(threshold),
		CostPerUnit:      database.DecimalToNumeric(cost),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeMessage(w, http.StatusConflict, "an ingredient with this name already exists")
			return
		}
		writeInternal(w, "create ingredient", err)
		return
	}

	writeJSON(w, http.StatusCreated, toIngredientResponse(ingredient))
}

// --- Helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toIngredientResponse(i database.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:               i.ID,
		Name:             i.Name,
		Unit:             i.Unit,
		CurrentStock:     stockString(i.CurrentStock),
		MinimumThreshold: stockString(i.MinimumThreshold),
		CostPerUnit:      moneyString(i.CostPerUnit),
		IsLowStock:       ledger.IngredientIsLowStock(i),
		UpdatedAt:        i.UpdatedAt,
	}
}

func toIngredientResponses(in []database.Ingredient) []ingredientResponse {
	out := make([]ingredientResponse, len(in))
	for i, ing := range in {
		out[i] = toIngredientResponse(ing)
	}
	return out
}
