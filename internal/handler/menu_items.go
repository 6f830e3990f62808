package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/ledger"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuItemStore is satisfied by *database.Queries.
type MenuItemStore interface {
	ListMenuItems(ctx context.Context, category database.NullKotType) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	AddMenuItemIngredient(ctx context.Context, arg database.AddMenuItemIngredientParams) (database.MenuItemIngredient, error)
}

// MenuItemHandler handles the menu and its ingredient mapping.
type MenuItemHandler struct {
	store MenuItemStore
}

func NewMenuItemHandler(store MenuItemStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

// RegisterRoutes registers menu endpoints, mounted at /menu-items.
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.Admins...))
		r.Post("/", h.Create)
		r.Post("/{id}/ingredients", h.AddIngredient)
	})
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	IsActive    *bool           `json:"isActive"`
}

type addMenuItemIngredientRequest struct {
	IngredientID string          `json:"ingredientId"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
}

type menuItemIngredientResponse struct {
	ID           uuid.UUID `json:"id"`
	MenuItemID   uuid.UUID `json:"menuItemId"`
	IngredientID uuid.UUID `json:"ingredientId"`
	Quantity     string    `json:"quantity"`
}

// --- Handlers ---

// List handles GET /menu-items?category=.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var category database.NullKotType
	if s := r.URL.Query().Get("category"); s != "" {
		c, ok := parseCategory(s)
		if !ok {
			writeMessage(w, http.StatusBadRequest, "category must be restaurant or bar")
			return
		}
		category = database.NullKotType{KotType: c, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), category)
	if err != nil {
		writeInternal(w, "list menu items", err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /menu-items.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	category, ok := parseCategory(req.Category)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "category must be restaurant or bar")
		return
	}
	price := req.Price.Round(billing.MoneyScale)
	if price.IsNegative() {
		writeMessage(w, http.StatusBadRequest, "price must be >= 0")
		return
	}
	if !billing.FitsMoney(price) {
		writeMessage(w, http.StatusBadRequest, service.ErrAmountTooLarge.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:        name,
		Description: pgtype.Text{String: req.Description, Valid: req.Description != ""},
		Price:       database.DecimalToNumeric(price),
		Category:    category,
		IsActive:    active,
	})
	if err != nil {
		writeInternal(w, "create menu item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// AddIngredient handles POST /menu-items/{id}/ingredients.
func (h *MenuItemHandler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	menuItemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid menu item ID")
		return
	}

	var req addMenuItemIngredientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid ingredientId")
		return
	}
	quantity := req.Quantity.Round(ledger.StockScale)
	if !quantity.IsPositive() {
		writeMessage(w, http.StatusBadRequest, "quantity must be > 0")
		return
	}
	if !ledger.FitsStock(quantity) {
		writeMessage(w, http.StatusBadRequest, service.ErrStockTooLarge.Error())
		return
	}

	if _, err := h.store.GetMenuItem(r.Context(), menuItemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "menu item not found")
			return
		}
		writeInternal(w, "get menu item", err)
		return
	}
	if _, err := h.store.GetIngredient(r.Context(), ingredientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "ingredient not found")
			return
		}
		writeInternal(w, "get ingredient", err)
		return
	}

	mapping, err := h.store.AddMenuItemIngredient(r.Context(), database.AddMenuItemIngredientParams{
		MenuItemID:   menuItemID,
		IngredientID: ingredientID,
		Quantity:     database.DecimalToNumeric(quantity),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeMessage(w, http.StatusConflict, "ingredient already mapped to this menu item")
			return
		}
		writeInternal(w, "add menu item ingredient", err)
		return
	}

	writeJSON(w, http.StatusCreated, menuItemIngredientResponse{
		ID:           mapping.ID,
		MenuItemID:   mapping.MenuItemID,
		IngredientID: mapping.IngredientID,
		Quantity:     stockString(mapping.Quantity),
	})
}

func parseCategory(s string) (database.KotType, bool) {
	switch c := database.KotType(s); c {
	case database.KotTypeRestaurant, database.KotTypeBar:
		return c, true
	}
	return "", false
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: textPtr(m.Description),
		Price:       moneyString(m.Price),
		Category:    string(m.Category),
		IsActive:    m.IsActive,
	}
}
