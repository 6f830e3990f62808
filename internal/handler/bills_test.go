package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/handler"
	"github.com/kotpos/api/internal/service"
)

type mockBillService struct {
	createFn   func(ctx context.Context, req service.CreateBillRequest) (database.Bill, error)
	markPaidFn func(ctx context.Context, req service.MarkBillPaidRequest) (database.Bill, error)
	calls      int
}

func (m *mockBillService) Create(ctx context.Context, req service.CreateBillRequest) (database.Bill, error) {
	m.calls++
	return m.createFn(ctx, req)
}

func (m *mockBillService) MarkPaid(ctx context.Context, req service.MarkBillPaidRequest) (database.Bill, error) {
	m.calls++
	return m.markPaidFn(ctx, req)
}

type mockBillStore struct {
	bills []database.Bill
	got   database.ListBillsParams
}

func (m *mockBillStore) ListBills(_ context.Context, arg database.ListBillsParams) ([]database.Bill, error) {
	m.got = arg
	return m.bills, nil
}

func billRouter(svc *mockBillService, store *mockBillStore) http.Handler {
	h := handler.NewBillHandler(svc, store)
	return newRouter("/bills", h.RegisterRoutes)
}

func testBill(kotID uuid.UUID) database.Bill {
	return database.Bill{
		ID:            uuid.New(),
		BillNumber:    "BILL-0001",
		KotID:         kotID,
		TotalAmount:   database.DecimalToNumeric(money("250")),
		ServiceCharge: database.DecimalToNumeric(money("25")),
		Tax:           database.DecimalToNumeric(money("12.5")),
		Discount:      database.DecimalToNumeric(money("10")),
		FinalAmount:   database.DecimalToNumeric(money("277.5")),
		GeneratedBy:   cashierID,
	}
}

func TestBillCreate(t *testing.T) {
	kotID := uuid.New()
	var got service.CreateBillRequest
	svc := &mockBillService{createFn: func(_ context.Context, req service.CreateBillRequest) (database.Bill, error) {
		got = req
		return testBill(kotID), nil
	}}

	rr := do(t, billRouter(svc, &mockBillStore{}), "POST", "/bills", enum.RoleRestaurantCashier,
		map[string]any{"kotId": kotID.String(), "discount": "10"})
	expectStatus(t, rr, http.StatusCreated)

	if got.KotID != kotID.String() || !got.Discount.Equal(money("10")) || got.GeneratedBy != cashierID {
		t.Errorf("unexpected service request: %+v", got)
	}
	resp := decodeObject(t, rr)
	want := map[string]string{
		"billNumber":    "BILL-0001",
		"totalAmount":   "250.00",
		"serviceCharge": "25.00",
		"tax":           "12.50",
		"discount":      "10.00",
		"finalAmount":   "277.50",
	}
	for k, v := range want {
		if resp[k] != v {
			t.Errorf("%s: got %v, want %s", k, resp[k], v)
		}
	}
	if resp["isPaid"] != false || resp["paymentMethod"] != nil {
		t.Errorf("new bill should be unpaid: %v", resp)
	}
}

func TestBillCreate_DiscountDefaultsToZero(t *testing.T) {
	var got service.CreateBillRequest
	svc := &mockBillService{createFn: func(_ context.Context, req service.CreateBillRequest) (database.Bill, error) {
		got = req
		return testBill(uuid.New()), nil
	}}
	rr := do(t, billRouter(svc, &mockBillStore{}), "POST", "/bills", enum.RoleBarman, map[string]any{"kotId": uuid.NewString()})
	expectStatus(t, rr, http.StatusCreated)
	if !got.Discount.IsZero() {
		t.Errorf("discount: got %s, want 0", got.Discount)
	}
}

func TestBillCreate_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidKotID, http.StatusBadRequest},
		{service.ErrInvalidDiscount, http.StatusBadRequest},
		{fmt.Errorf("compute bill: %w", service.ErrAmountTooLarge), http.StatusBadRequest},
		{service.ErrKotNotFound, http.StatusNotFound},
		{service.ErrKotNotBillable, http.StatusConflict},
		{service.ErrKotAlreadyBilled, http.StatusConflict},
	}
	for _, tt := range tests {
		svc := &mockBillService{createFn: func(context.Context, service.CreateBillRequest) (database.Bill, error) {
			return database.Bill{}, tt.err
		}}
		rr := do(t, billRouter(svc, &mockBillStore{}), "POST", "/bills", enum.RoleRestaurantCashier,
			map[string]any{"kotId": uuid.NewString()})
		if rr.Code != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, rr.Code, tt.want)
		}
	}
}

func TestBillMutations_BillersOnly(t *testing.T) {
	for _, role := range []string{enum.RoleAdmin, enum.RoleStoreKeeper, enum.RoleAuthorisingOfficer} {
		svc := &mockBillService{}
		router := billRouter(svc, &mockBillStore{})
		if rr := do(t, router, "POST", "/bills", role, map[string]any{}); rr.Code != http.StatusForbidden {
			t.Errorf("%s create: got %d, want 403", role, rr.Code)
		}
		if rr := do(t, router, "PATCH", "/bills/"+uuid.NewString()+"/pay", role, nil); rr.Code != http.StatusForbidden {
			t.Errorf("%s pay: got %d, want 403", role, rr.Code)
		}
		if svc.calls != 0 {
			t.Errorf("%s: service called", role)
		}
	}
}

func TestBillPay(t *testing.T) {
	billID := uuid.New()
	var got []service.MarkBillPaidRequest
	svc := &mockBillService{markPaidFn: func(_ context.Context, req service.MarkBillPaidRequest) (database.Bill, error) {
		got = append(got, req)
		if len(got) > 1 {
			return database.Bill{}, service.ErrBillAlreadyPaid
		}
		b := testBill(uuid.New())
		b.ID = req.BillID
		b.IsPaid = true
		b.PaymentMethod = pgtype.Text{String: "cash", Valid: true}
		return b, nil
	}}
	router := billRouter(svc, &mockBillStore{})
	path := "/bills/" + billID.String() + "/pay"

	rr := do(t, router, "PATCH", path, enum.RoleRestaurantCashier, nil)
	expectStatus(t, rr, http.StatusOK)
	if resp := decodeObject(t, rr); resp["isPaid"] != true || resp["paymentMethod"] != "cash" {
		t.Errorf("unexpected response: %v", resp)
	}
	if got[0].BillID != billID || got[0].PaymentMethod != "" {
		t.Errorf("first request: %+v", got[0])
	}

	rr = do(t, router, "PATCH", path, enum.RoleRestaurantCashier, map[string]string{"paymentMethod": "card"})
	expectStatus(t, rr, http.StatusConflict)
	if got[1].PaymentMethod != "card" {
		t.Errorf("payment method: got %q, want card", got[1].PaymentMethod)
	}
}

func TestBillPay_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{service.ErrBillNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		svc := &mockBillService{markPaidFn: func(context.Context, service.MarkBillPaidRequest) (database.Bill, error) {
			return database.Bill{}, tt.err
		}}
		rr := do(t, billRouter(svc, &mockBillStore{}), "PATCH", "/bills/"+uuid.NewString()+"/pay", enum.RoleBarman,
			map[string]string{"paymentMethod": "cheque"})
		if rr.Code != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, rr.Code, tt.want)
		}
	}
}

func TestBillList_Filters(t *testing.T) {
	kotID := uuid.New()
	store := &mockBillStore{bills: []database.Bill{testBill(kotID)}}
	router := billRouter(&mockBillService{}, store)

	rr := do(t, router, "GET", "/bills?kotId="+kotID.String()+"&isPaid=false", enum.RoleAdmin, nil)
	expectStatus(t, rr, http.StatusOK)
	if !store.got.KotID.Valid || uuid.UUID(store.got.KotID.Bytes) != kotID {
		t.Errorf("kotId filter: got %+v", store.got.KotID)
	}
	if !store.got.IsPaid.Valid || store.got.IsPaid.Bool {
		t.Errorf("isPaid filter: got %+v", store.got.IsPaid)
	}
	if list := decodeList(t, rr); len(list) != 1 {
		t.Errorf("len: got %d, want 1", len(list))
	}

	rr = do(t, router, "GET", "/bills", enum.RoleStoreKeeper, nil)
	expectStatus(t, rr, http.StatusOK)
	if store.got.KotID.Valid || store.got.IsPaid.Valid {
		t.Errorf("filters should be unset: %+v", store.got)
	}

	for _, q := range []string{"kotId=abc", "isPaid=sometimes"} {
		if rr := do(t, router, "GET", "/bills?"+q, enum.RoleAdmin, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, rr.Code)
		}
	}
}
