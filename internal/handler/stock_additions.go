package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/shopspring/decimal"
)

// StockAdditionServicer is satisfied by *service.StockService.
type StockAdditionServicer interface {
	Create(ctx context.Context, req service.CreateStockAdditionRequest) (database.StockAddition, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*service.StockApprovalResult, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (database.StockAddition, error)
}

// StockAdditionStore is satisfied by *database.Queries.
type StockAdditionStore interface {
	ListStockAdditions(ctx context.Context, status database.NullApprovalStatus) ([]database.ListStockAdditionsRow, error)
}

// StockAdditionHandler handles the stock addition approval workflow.
type StockAdditionHandler struct {
	svc   StockAdditionServicer
	store StockAdditionStore
}

func NewStockAdditionHandler(svc StockAdditionServicer, store StockAdditionStore) *StockAdditionHandler {
	return &StockAdditionHandler{svc: svc, store: store}
}

// RegisterRoutes registers stock addition endpoints, mounted at /stock-additions.
func (h *StockAdditionHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(enum.StockViewers...)).Get("/", h.List)
	r.With(middleware.RequireRole(enum.StockRequesters...)).Post("/", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.Approvers...))
		r.Patch("/{id}/approve", h.Approve)
		r.Patch("/{id}/reject", h.Reject)
	})
}

// --- Request / Response types ---

type createStockAdditionRequest struct {
	IngredientID string          `json:"ingredientId"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type stockAdditionResponse struct {
	ID              uuid.UUID  `json:"id"`
	IngredientID    uuid.UUID  `json:"ingredientId"`
	IngredientName  string     `json:"ingredientName,omitempty"`
	IngredientUnit  string     `json:"ingredientUnit,omitempty"`
	Quantity        string     `json:"quantity"`
	CostPerUnit     string     `json:"costPerUnit"`
	TotalCost       string     `json:"totalCost"`
	Status          string     `json:"status"`
	AddedBy         uuid.UUID  `json:"addedById"`
	AddedByUsername string     `json:"addedByUsername,omitempty"`
	ApprovedBy      *uuid.UUID `json:"approvedById"`
	Reason          *string    `json:"reason"`
	DecidedAt       *time.Time `json:"decidedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type stockApprovalResponse struct {
	StockAddition stockAdditionResponse `json:"stockAddition"`
	Ingredient    ingredientResponse    `json:"ingredient"`
}

// --- Handlers ---

// List handles GET /stock-additions?status=.
func (h *StockAdditionHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := parseApprovalStatus(w, r)
	if !ok {
		return
	}

	rows, err := h.store.ListStockAdditions(r.Context(), status)
	if err != nil {
		writeInternal(w, "list stock additions", err)
		return
	}

	resp := make([]stockAdditionResponse, len(rows))
	for i, row := range rows {
		resp[i] = toStockAdditionResponse(row.StockAddition)
		resp[i].IngredientName = row.IngredientName
		resp[i].IngredientUnit = row.IngredientUnit
		resp[i].AddedByUsername = row.AddedByUsername
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /stock-additions.
func (h *StockAdditionHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req createStockAdditionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addition, err := h.svc.Create(r.Context(), service.CreateStockAdditionRequest{
		IngredientID: req.IngredientID,
		Quantity:     req.Quantity,
		CostPerUnit:  req.CostPerUnit,
		AddedBy:      caller.UserID,
	})
	if err != nil {
		writeServiceError(w, "create stock addition", err)
		return
	}

	writeJSON(w, http.StatusCreated, toStockAdditionResponse(addition))
}

// Approve handles PATCH /stock-additions/{id}/approve.
func (h *StockAdditionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid stock addition ID")
		return
	}

	result, err := h.svc.Approve(r.Context(), id, caller.UserID)
	if err != nil {
		writeServiceError(w, "approve stock addition", err)
		return
	}

	writeJSON(w, http.StatusOK, stockApprovalResponse{
		StockAddition: toStockAdditionResponse(result.Addition),
		Ingredient:    toIngredientResponse(result.Ingredient),
	})
}

// Reject handles PATCH /stock-additions/{id}/reject.
func (h *StockAdditionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid stock addition ID")
		return
	}

	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	addition, err := h.svc.Reject(r.Context(), id, caller.UserID, req.Reason)
	if err != nil {
		writeServiceError(w, "reject stock addition", err)
		return
	}

	writeJSON(w, http.StatusOK, toStockAdditionResponse(addition))
}

// --- Helpers ---

// parseApprovalStatus reads the optional ?status= filter shared by the
// approval list endpoints.
func parseApprovalStatus(w http.ResponseWriter, r *http.Request) (database.NullApprovalStatus, bool) {
	s := r.URL.Query().Get("status")
	if s == "" {
		return database.NullApprovalStatus{}, true
	}
	status := database.ApprovalStatus(s)
	switch status {
	case database.ApprovalStatusPending, database.ApprovalStatusApproved, database.ApprovalStatusRejected:
		return database.NullApprovalStatus{ApprovalStatus: status, Valid: true}, true
	}
	writeMessage(w, http.StatusBadRequest, "invalid status")
	return database.NullApprovalStatus{}, false
}

func toStockAdditionResponse(s database.StockAddition) stockAdditionResponse {
	return stockAdditionResponse{
		ID:           s.ID,
		IngredientID: s.IngredientID,
		Quantity:     stockString(s.Quantity),
		CostPerUnit:  moneyString(s.CostPerUnit),
		TotalCost:    moneyString(s.TotalCost),
		Status:       string(s.Status),
		AddedBy:      s.AddedBy,
		ApprovedBy:   uuidPtr(s.ApprovedBy),
		Reason:       textPtr(s.Reason),
		DecidedAt:    timePtr(s.DecidedAt),
		CreatedAt:    s.CreatedAt,
	}
}
