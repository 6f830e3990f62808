package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/middleware"
	"github.com/kotpos/api/internal/service"
	"github.com/shopspring/decimal"
)

// BillServicer is satisfied by *service.BillService.
type BillServicer interface {
	Create(ctx context.Context, req service.CreateBillRequest) (database.Bill, error)
	MarkPaid(ctx context.Context, req service.MarkBillPaidRequest) (database.Bill, error)
}

// BillStore is satisfied by *database.Queries.
type BillStore interface {
	ListBills(ctx context.Context, arg database.ListBillsParams) ([]database.Bill, error)
}

// BillHandler handles bill generation and payment.
type BillHandler struct {
	svc   BillServicer
	store BillStore
}

func NewBillHandler(svc BillServicer, store BillStore) *BillHandler {
	return &BillHandler{svc: svc, store: store}
}

// RegisterRoutes registers bill endpoints, mounted at /bills.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.Billers...))
		r.Post("/", h.Create)
		r.Patch("/{id}/pay", h.Pay)
	})
}

// --- Request / Response types ---

type createBillRequest struct {
	KotID    string           `json:"kotId"`
	Discount *decimal.Decimal `json:"discount"`
}

type payBillRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

type billResponse struct {
	ID            uuid.UUID  `json:"id"`
	BillNumber    string     `json:"billNumber"`
	KotID         uuid.UUID  `json:"kotId"`
	TotalAmount   string     `json:"totalAmount"`
	ServiceCharge string     `json:"serviceCharge"`
	Tax           string     `json:"tax"`
	Discount      string     `json:"discount"`
	FinalAmount   string     `json:"finalAmount"`
	PaymentMethod *string    `json:"paymentMethod"`
	IsPaid        bool       `json:"isPaid"`
	PaidAt        *time.Time `json:"paidAt"`
	GeneratedBy   uuid.UUID  `json:"generatedById"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// --- Handlers ---

// List handles GET /bills?kotId=&isPaid=.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var params database.ListBillsParams
	if s := q.Get("kotId"); s != "" {
		kotID, err := uuid.Parse(s)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid kotId")
			return
		}
		params.KotID = pgtype.UUID{Bytes: kotID, Valid: true}
	}
	if s := q.Get("isPaid"); s != "" {
		paid, err := strconv.ParseBool(s)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "isPaid must be true or false")
			return
		}
		params.IsPaid = pgtype.Bool{Bool: paid, Valid: true}
	}

	bills, err := h.store.ListBills(r.Context(), params)
	if err != nil {
		writeInternal(w, "list bills", err)
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toBillResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /bills.
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	var req createBillRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}

	bill, err := h.svc.Create(r.Context(), service.CreateBillRequest{
		KotID:       req.KotID,
		Discount:    discount,
		GeneratedBy: caller.UserID,
	})
	if err != nil {
		writeServiceError(w, "create bill", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillResponse(bill))
}

// Pay handles PATCH /bills/{id}/pay. The body is optional.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	billID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid bill ID")
		return
	}

	var req payBillRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bill, err := h.svc.MarkPaid(r.Context(), service.MarkBillPaidRequest{
		BillID:        billID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, "mark bill paid", err)
		return
	}

	writeJSON(w, http.StatusOK, toBillResponse(bill))
}

func toBillResponse(b database.Bill) billResponse {
	return billResponse{
		ID:            b.ID,
		BillNumber:    b.BillNumber,
		KotID:         b.KotID,
		TotalAmount:   moneyString(b.TotalAmount),
		ServiceCharge: moneyString(b.ServiceCharge),
		Tax:           moneyString(b.Tax),
		Discount:      moneyString(b.Discount),
		FinalAmount:   moneyString(b.FinalAmount),
		PaymentMethod: textPtr(b.PaymentMethod),
		IsPaid:        b.IsPaid,
		PaidAt:        timePtr(b.PaidAt),
		GeneratedBy:   b.GeneratedBy,
		CreatedAt:     b.CreatedAt,
	}
}
