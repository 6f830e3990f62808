package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/handler"
	"github.com/kotpos/api/internal/service"
)

type mockStockService struct {
	createFn  func(ctx context.Context, req service.CreateStockAdditionRequest) (database.StockAddition, error)
	approveFn func(ctx context.Context, id, approverID uuid.UUID) (*service.StockApprovalResult, error)
	rejectFn  func(ctx context.Context, id, approverID uuid.UUID, reason string) (database.StockAddition, error)
	calls     int
}

func (m *mockStockService) Create(ctx context.Context, req service.CreateStockAdditionRequest) (database.StockAddition, error) {
	m.calls++
	return m.createFn(ctx, req)
}

func (m *mockStockService) Approve(ctx context.Context, id, approverID uuid.UUID) (*service.StockApprovalResult, error) {
	m.calls++
	return m.approveFn(ctx, id, approverID)
}

func (m *mockStockService) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (database.StockAddition, error) {
	m.calls++
	return m.rejectFn(ctx, id, approverID, reason)
}

type mockStockAdditionStore struct {
	rows []database.ListStockAdditionsRow
	got  database.NullApprovalStatus
}

func (m *mockStockAdditionStore) ListStockAdditions(_ context.Context, status database.NullApprovalStatus) ([]database.ListStockAdditionsRow, error) {
	m.got = status
	return m.rows, nil
}

func stockRouter(svc *mockStockService, store *mockStockAdditionStore) http.Handler {
	h := handler.NewStockAdditionHandler(svc, store)
	return newRouter("/stock-additions", h.RegisterRoutes)
}

func testStockAddition(status database.ApprovalStatus) database.StockAddition {
	return database.StockAddition{
		ID:           uuid.New(),
		IngredientID: uuid.New(),
		Quantity:     database.DecimalToNumeric(money("5")),
		CostPerUnit:  database.DecimalToNumeric(money("2.10")),
		TotalCost:    database.DecimalToNumeric(money("10.50")),
		Status:       status,
		AddedBy:      keeperID,
	}
}

func TestStockAdditionCreate(t *testing.T) {
	var got service.CreateStockAdditionRequest
	svc := &mockStockService{createFn: func(_ context.Context, req service.CreateStockAdditionRequest) (database.StockAddition, error) {
		got = req
		return testStockAddition(database.ApprovalStatusPending), nil
	}}

	body := map[string]any{"ingredientId": uuid.NewString(), "quantity": "5", "costPerUnit": 2.10}
	rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "POST", "/stock-additions", enum.RoleStoreKeeper, body)
	expectStatus(t, rr, http.StatusCreated)

	if got.AddedBy != keeperID {
		t.Errorf("AddedBy: got %s, want %s", got.AddedBy, keeperID)
	}
	if !got.Quantity.Equal(money("5")) || !got.CostPerUnit.Equal(money("2.1")) {
		t.Errorf("amounts: got %s x %s", got.Quantity, got.CostPerUnit)
	}
	resp := decodeObject(t, rr)
	if resp["status"] != "pending" || resp["totalCost"] != "10.50" || resp["quantity"] != "5.000" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestStockAdditionCreate_OnlyStoreKeeper(t *testing.T) {
	for _, role := range []string{enum.RoleAdmin, enum.RoleAuthorisingOfficer, enum.RoleRestaurantCashier} {
		svc := &mockStockService{}
		rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "POST", "/stock-additions", role, map[string]any{})
		if rr.Code != http.StatusForbidden || svc.calls != 0 {
			t.Errorf("%s: got %d with %d calls, want 403 and none", role, rr.Code, svc.calls)
		}
	}
}

func TestStockAdditionCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidIngredientID, http.StatusBadRequest},
		{service.ErrInvalidStockQuantity, http.StatusBadRequest},
		{service.ErrInvalidCostPerUnit, http.StatusBadRequest},
		{service.ErrStockTooLarge, http.StatusBadRequest},
		{service.ErrAmountTooLarge, http.StatusBadRequest},
		{service.ErrIngredientNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		svc := &mockStockService{createFn: func(context.Context, service.CreateStockAdditionRequest) (database.StockAddition, error) {
			return database.StockAddition{}, tt.err
		}}
		rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "POST", "/stock-additions", enum.RoleStoreKeeper,
			map[string]any{"ingredientId": "x", "quantity": 0})
		if rr.Code != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, rr.Code, tt.want)
		}
	}
}

func TestStockAdditionApprove(t *testing.T) {
	addition := testStockAddition(database.ApprovalStatusApproved)
	addition.ApprovedBy = pgtype.UUID{Bytes: officerID, Valid: true}
	var gotApprover uuid.UUID
	svc := &mockStockService{approveFn: func(_ context.Context, id, approverID uuid.UUID) (*service.StockApprovalResult, error) {
		gotApprover = approverID
		return &service.StockApprovalResult{
			Addition: addition,
			Ingredient: database.Ingredient{
				ID: addition.IngredientID, Name: "Rice", Unit: "kg",
				CurrentStock:     database.DecimalToNumeric(money("15")),
				MinimumThreshold: database.DecimalToNumeric(money("5")),
			},
		}, nil
	}}

	rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "PATCH", "/stock-additions/"+addition.ID.String()+"/approve",
		enum.RoleAuthorisingOfficer, nil)
	expectStatus(t, rr, http.StatusOK)

	if gotApprover != officerID {
		t.Errorf("approver: got %s, want %s", gotApprover, officerID)
	}
	resp := decodeObject(t, rr)
	if sa := resp["stockAddition"].(map[string]any); sa["status"] != "approved" || sa["approvedById"] != officerID.String() {
		t.Errorf("stockAddition: got %v", sa)
	}
	if ing := resp["ingredient"].(map[string]any); ing["currentStock"] != "15.000" || ing["isLowStock"] != false {
		t.Errorf("ingredient: got %v", ing)
	}
}

func TestStockAdditionApprove_NonOfficerForbidden(t *testing.T) {
	for _, role := range []string{enum.RoleAdmin, enum.RoleStoreKeeper, enum.RoleRestaurantCashier, enum.RoleBarman} {
		svc := &mockStockService{}
		rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "PATCH", "/stock-additions/"+uuid.NewString()+"/approve", role, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: got %d, want 403", role, rr.Code)
		}
		if svc.calls != 0 {
			t.Errorf("%s: service called", role)
		}
	}
}

func TestStockAdditionApprove_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrStockAdditionNotFound, http.StatusNotFound},
		{service.ErrAlreadyDecided, http.StatusConflict},
	}
	for _, tt := range tests {
		svc := &mockStockService{approveFn: func(context.Context, uuid.UUID, uuid.UUID) (*service.StockApprovalResult, error) {
			return nil, tt.err
		}}
		rr := do(t, stockRouter(svc, &mockStockAdditionStore{}), "PATCH", "/stock-additions/"+uuid.NewString()+"/approve",
			enum.RoleAuthorisingOfficer, nil)
		if rr.Code != tt.want {
			t.Errorf("%v: got %d, want %d", tt.err, rr.Code, tt.want)
		}
	}

	rr := do(t, stockRouter(&mockStockService{}, &mockStockAdditionStore{}), "PATCH", "/stock-additions/nope/approve",
		enum.RoleAuthorisingOfficer, nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestStockAdditionReject(t *testing.T) {
	var gotReason string
	svc := &mockStockService{rejectFn: func(_ context.Context, id, approverID uuid.UUID, reason string) (database.StockAddition, error) {
		gotReason = reason
		if reason == "" {
			return database.StockAddition{}, service.ErrRejectionReasonRequired
		}
		s := testStockAddition(database.ApprovalStatusRejected)
		s.Reason = pgtype.Text{String: reason, Valid: true}
		return s, nil
	}}
	router := stockRouter(svc, &mockStockAdditionStore{})
	path := "/stock-additions/" + uuid.NewString() + "/reject"

	rr := do(t, router, "PATCH", path, enum.RoleAuthorisingOfficer, map[string]string{"reason": "damaged"})
	expectStatus(t, rr, http.StatusOK)
	if gotReason != "damaged" {
		t.Errorf("reason: got %q", gotReason)
	}
	if resp := decodeObject(t, rr); resp["reason"] != "damaged" || resp["status"] != "rejected" {
		t.Errorf("unexpected response: %v", resp)
	}

	rr = do(t, router, "PATCH", path, enum.RoleAuthorisingOfficer, map[string]string{})
	expectStatus(t, rr, http.StatusBadRequest)
	expectMessage(t, rr, service.ErrRejectionReasonRequired.Error())
}

func TestStockAdditionList(t *testing.T) {
	store := &mockStockAdditionStore{rows: []database.ListStockAdditionsRow{{
		StockAddition:   testStockAddition(database.ApprovalStatusPending),
		IngredientName:  "Rice",
		IngredientUnit:  "kg",
		AddedByUsername: "storekeeper",
	}}}
	router := stockRouter(&mockStockService{}, store)

	rr := do(t, router, "GET", "/stock-additions?status=pending", enum.RoleAuthorisingOfficer, nil)
	expectStatus(t, rr, http.StatusOK)
	if !store.got.Valid || store.got.ApprovalStatus != database.ApprovalStatusPending {
		t.Errorf("status filter: got %+v", store.got)
	}
	list := decodeList(t, rr)
	if len(list) != 1 || list[0]["ingredientName"] != "Rice" || list[0]["addedByUsername"] != "storekeeper" {
		t.Errorf("unexpected list: %v", list)
	}

	rr = do(t, router, "GET", "/stock-additions", enum.RoleStoreKeeper, nil)
	expectStatus(t, rr, http.StatusOK)

	rr = do(t, router, "GET", "/stock-additions?status=maybe", enum.RoleStoreKeeper, nil)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = do(t, router, "GET", "/stock-additions", enum.RoleRestaurantCashier, nil)
	expectStatus(t, rr, http.StatusForbidden)
}
