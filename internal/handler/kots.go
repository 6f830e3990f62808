package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
)

const (
	defaultKotLimit = 50
	maxKotLimit     = 200
)

// KotServicer is satisfied by *service.KotService.
type KotServicer interface {
	CreateKot(ctx context.Context, req service.CreateKotRequest) (*service.KotResult, error)
	UpdateStatus(ctx context.Context, req service.UpdateKotStatusRequest) (database.Kot, error)
}

// KotStore defines the read queries used by KOT handlers.
// Satisfied by *database.Queries.
type KotStore interface {
	GetKot(ctx context.Context, id uuid.UUID) (database.Kot, error)
	ListKots(ctx context.Context, arg database.ListKotsParams) ([]database.ListKotsRow, error)
	ListKotItemsByKotIDs(ctx context.Context, kotIDs []uuid.UUID) ([]database.ListKotItemsByKotIDsRow, error)
}

// KotHandler handles kitchen order ticket endpoints.
type KotHandler struct {
	svc   KotServicer
	store KotStore
}

func NewKotHandler(svc KotServicer, store KotStore) *KotHandler {
	return &KotHandler{svc: svc, store: store}
}

// RegisterRoutes registers KOT endpoints. Expected to be mounted at /kots
// behind Authenticate.
func (h *KotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(middleware.RequireRole(enum.KotCreators...)).Post("/", h.Create)
	r.With(middleware.RequireRole(enum.KotProcessors...)).Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createKotRequest struct {
	Kot   createKotHeader        `json:"kot"`
	Items []createKotItemRequest `json:"items"`
}

type createKotHeader struct {
	CustomerName string    `json:"customerName"`
	Type         string    `json:"type"`
	OrderTime    time.Time `json:"orderTime"`
	ExpectedTime time.Time `json:"expectedTime"`
}

// unitPrice may be sent by older clients; it is ignored.
type createKotItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int32  `json:"quantity"`
}

type kotResponse struct {
	ID                uuid.UUID         `json:"id"`
	KotNumber         string            `json:"kotNumber"`
	CustomerName      string            `json:"customerName"`
	Type              string            `json:"type"`
	Status            string            `json:"status"`
	OrderTime         time.Time         `json:"orderTime"`
	ExpectedTime      time.Time         `json:"expectedTime"`
	TotalAmount       string            `json:"totalAmount"`
	CreatedBy         uuid.UUID         `json:"createdById"`
	CreatedByUsername string            `json:"createdByUsername,omitempty"`
	ProcessedBy       *uuid.UUID        `json:"processedById"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	Items             []kotItemResponse `json:"items,omitempty"`
}

type kotItemResponse struct {
	ID           uuid.UUID `json:"id"`
	LineNo       int32     `json:"lineNo"`
	MenuItemID   uuid.UUID `json:"menuItemId"`
	MenuItemName string    `json:"menuItemName,omitempty"`
	Quantity     int32     `json:"quantity"`
	UnitPrice    string    `json:"unitPrice"`
	TotalPrice   string    `json:"totalPrice"`
}

type updateKotStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// List handles GET /kots?status=&type=&limit=.
func (h *KotHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := database.ListKotsParams{Limit: defaultKotLimit}
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		params.Limit = int32(min(v, maxKotLimit))
	}
	if s := q.Get("status"); s != "" {
		status := database.KotStatus(s)
		if !isKnownKotStatus(status) {
			writeMessage(w, http.StatusBadRequest, "invalid status")
			return
		}
		params.Status = database.NullKotStatus{KotStatus: status, Valid: true}
	}
	if s := q.Get("type"); s != "" {
		kotType := database.KotType(s)
		if kotType != database.KotTypeRestaurant && kotType != database.KotTypeBar {
			writeMessage(w, http.StatusBadRequest, "invalid type")
			return
		}
		params.Type = database.NullKotType{KotType: kotType, Valid: true}
	}

	rows, err := h.store.ListKots(r.Context(), params)
	if err != nil {
		writeInternal(w, "list kots", err)
		return
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.Kot.ID
	}
	itemsByKot, err := h.itemsByKot(r.Context(), ids)
	if err != nil {
		writeInternal(w, "list kot items", err)
		return
	}

	resp := make([]kotResponse, len(rows))
	for i, row := range rows {
		resp[i] = toKotResponse(row.Kot)
		resp[i].CreatedByUsername = row.CreatedByUsername
		resp[i].Items = itemsByKot[row.Kot.ID]
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /kots/{id}.
func (h *KotHandler) Get(w http.ResponseWriter, r *http.Request) {
	kotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid kot ID")
		return
	}

	kot, err := h.store.GetKot(r.Context(), kotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "kot not found")
			return
		}
		writeInternal(w, "get kot", err)
		return
	}

	itemsByKot, err := h.itemsByKot(r.Context(), []uuid.UUID{kotID})
	if err != nil {
		writeInternal(w, "list kot items", err)
		return
	}

	resp := toKotResponse(kot)
	resp.Items = itemsByKot[kotID]
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /kots.
func (h *KotHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req createKotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kot.OrderTime.IsZero() || req.Kot.ExpectedTime.IsZero() {
		writeMessage(w, http.StatusBadRequest, "orderTime and expectedTime are required")
		return
	}

	items := make([]service.CreateKotItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CreateKotItemRequest{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}

	result, err := h.svc.CreateKot(r.Context(), service.CreateKotRequest{
		CreatedBy:    caller.UserID,
		CustomerName: req.Kot.CustomerName,
		Type:         req.Kot.Type,
		OrderTime:    req.Kot.OrderTime,
		ExpectedTime: req.Kot.ExpectedTime,
		Items:        items,
	})
	if err != nil {
		writeServiceError(w, "create kot", err)
		return
	}

	resp := toKotResponse(result.Kot)
	resp.Items = make([]kotItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = toKotItemResponse(item, "")
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateStatus handles PATCH /kots/{id}/status.
func (h *KotHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	kotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid kot ID")
		return
	}

	var req updateKotStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "status is required")
		return
	}

	kot, err := h.svc.UpdateStatus(r.Context(), service.UpdateKotStatusRequest{
		KotID:   kotID,
		Status:  req.Status,
		ActorID: caller.UserID,
	})
	if err != nil {
		writeServiceError(w, "update kot status", err)
		return
	}

	writeJSON(w, http.StatusOK, toKotResponse(kot))
}

// --- Helpers ---

func (h *KotHandler) itemsByKot(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]kotItemResponse, error) {
	out := make(map[uuid.UUID][]kotItemResponse, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := h.store.ListKotItemsByKotIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.KotItem.KotID] = append(out[row.KotItem.KotID], toKotItemResponse(row.KotItem, row.MenuItemName))
	}
	return out, nil
}

func isKnownKotStatus(s database.KotStatus) bool {
	switch s {
	case database.KotStatusPending, database.KotStatusProcessing, database.KotStatusCompleted,
		database.KotStatusCancelled, database.KotStatusReversed:
		return true
	}
	return false
}

func toKotResponse(k database.Kot) kotResponse {
	return kotResponse{
		ID:           k.ID,
		KotNumber:    k.KotNumber,
		CustomerName: k.CustomerName,
		Type:         string(k.Type),
		Status:       string(k.Status),
		OrderTime:    k.OrderTime,
		ExpectedTime: k.ExpectedTime,
		TotalAmount:  moneyString(k.TotalAmount),
		CreatedBy:    k.CreatedBy,
		ProcessedBy:  uuidPtr(k.ProcessedBy),
		CreatedAt:    k.CreatedAt,
		UpdatedAt:    k.UpdatedAt,
	}
}

func toKotItemResponse(item database.KotItem, menuItemName string) kotItemResponse {
	return kotItemResponse{
		ID:           item.ID,
		LineNo:       item.LineNo,
		MenuItemID:   item.MenuItemID,
		MenuItemName: menuItemName,
		Quantity:     item.Quantity,
		UnitPrice:    moneyString(item.UnitPrice),
		TotalPrice:   moneyString(item.TotalPrice),
	}
}
