package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
)

// ReversalServicer is satisfied by *service.ReversalService.
type ReversalServicer interface {
	Create(ctx context.Context, req service.CreateReversalRequest) (database.OrderReversal, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*service.ReversalApprovalResult, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (database.OrderReversal, error)
}

// ReversalStore is satisfied by *database.Queries.
type ReversalStore interface {
	ListOrderReversals(ctx context.Context, status database.NullApprovalStatus) ([]database.ListOrderReversalsRow, error)
}

// ReversalHandler handles order reversal requests and their approval.
type ReversalHandler struct {
	svc   ReversalServicer
	store ReversalStore
}

func NewReversalHandler(svc ReversalServicer, store ReversalStore) *ReversalHandler {
	return &ReversalHandler{svc: svc, store: store}
}

// RegisterRoutes registers order reversal endpoints, mounted at /order-reversals.
func (h *ReversalHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(enum.ReversalRequesters...)).Post("/", h.Create)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.Approvers...))
		r.Get("/", h.List)
		r.Patch("/{id}/approve", h.Approve)
		r.Patch("/{id}/reject", h.Reject)
	})
}

// --- Request / Response types ---

type createReversalRequest struct {
	KotID  string `json:"kotId"`
	Reason string `json:"reason"`
}

type reversalResponse struct {
	ID                  uuid.UUID  `json:"id"`
	KotID               uuid.UUID  `json:"kotId"`
	KotNumber           string     `json:"kotNumber,omitempty"`
	Reason              string     `json:"reason"`
	Status              string     `json:"status"`
	RequestedBy         uuid.UUID  `json:"requestedById"`
	RequestedByUsername string     `json:"requestedByUsername,omitempty"`
	ApprovedBy          *uuid.UUID `json:"approvedById"`
	RejectionReason     *string    `json:"rejectionReason"`
	DecidedAt           *time.Time `json:"decidedAt"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type reversalApprovalResponse struct {
	OrderReversal reversalResponse `json:"orderReversal"`
	Kot           kotResponse      `json:"kot"`
}

// --- Handlers ---

// List handles GET /order-reversals?status=.
func (h *ReversalHandler) List(w http.ResponseWriter, r *http.Request) {
	status, ok := parseApprovalStatus(w, r)
	if !ok {
		return
	}

	rows, err := h.store.ListOrderReversals(r.Context(), status)
	if err != nil {
		writeInternal(w, "list order reversals", err)
		return
	}

	resp := make([]reversalResponse, len(rows))
	for i, row := range rows {
		resp[i] = toReversalResponse(row.OrderReversal)
		resp[i].KotNumber = row.KotNumber
		resp[i].RequestedByUsername = row.RequestedByUsername
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /order-reversals.
func (h *ReversalHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req createReversalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reversal, err := h.svc.Create(r.Context(), service.CreateReversalRequest{
		KotID:       req.KotID,
		Reason:      req.Reason,
		RequestedBy: caller.UserID,
	})
	if err != nil {
		writeServiceError(w, "create order reversal", err)
		return
	}

	writeJSON(w, http.StatusCreated, toReversalResponse(reversal))
}

// Approve handles PATCH /order-reversals/{id}/approve.
func (h *ReversalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid order reversal ID")
		return
	}

	result, err := h.svc.Approve(r.Context(), id, caller.UserID)
	if err != nil {
		writeServiceError(w, "approve order reversal", err)
		return
	}

	writeJSON(w, http.StatusOK, reversalApprovalResponse{
		OrderReversal: toReversalResponse(result.Reversal),
		Kot:           toKotResponse(result.Kot),
	})
}

// Reject handles PATCH /order-reversals/{id}/reject. The body is optional.
func (h *ReversalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid order reversal ID")
		return
	}

	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reversal, err := h.svc.Reject(r.Context(), id, caller.UserID, req.Reason)
	if err != nil {
		writeServiceError(w, "reject order reversal", err)
		return
	}

	writeJSON(w, http.StatusOK, toReversalResponse(reversal))
}

func toReversalResponse(o database.OrderReversal) reversalResponse {
	return reversalResponse{
		ID:              o.ID,
		KotID:           o.KotID,
		Reason:          o.Reason,
		Status:          string(o.Status),
		RequestedBy:     o.RequestedBy,
		ApprovedBy:      uuidPtr(o.ApprovedBy),
		RejectionReason: textPtr(o.RejectionReason),
		DecidedAt:       timePtr(o.DecidedAt),
		CreatedAt:       o.CreatedAt,
	}
}
