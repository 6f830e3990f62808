package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/events"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr error
	committed bool
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return nil }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner and counts transactions.
type mockTxBeginner struct {
	tx    *mockTx
	err   error
	calls int
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}

func newBeginner() *mockTxBeginner {
	return &mockTxBeginner{tx: &mockTx{}}
}

// mockStore satisfies every store interface in this package.
// Calling a method whose function is unset panics.
type mockStore struct {
	lockSequenceFn          func(ctx context.Context, scope string) error
	getLastKotNumberFn      func(ctx context.Context, t database.KotType) (string, error)
	getLastBillNumberFn     func(ctx context.Context) (string, error)
	getMenuItemFn           func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	createKotFn             func(ctx context.Context, arg database.CreateKotParams) (database.Kot, error)
	createKotItemFn         func(ctx context.Context, arg database.CreateKotItemParams) (database.KotItem, error)
	getKotFn                func(ctx context.Context, id uuid.UUID) (database.Kot, error)
	getKotForUpdateFn       func(ctx context.Context, id uuid.UUID) (database.Kot, error)
	updateKotStatusFn       func(ctx context.Context, arg database.UpdateKotStatusParams) (database.Kot, error)
	markKotReversedFn       func(ctx context.Context, id uuid.UUID) (database.Kot, error)
	getIngredientFn         func(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	creditIngredientStockFn func(ctx context.Context, arg database.CreditIngredientStockParams) (database.Ingredient, error)
	createStockAdditionFn   func(ctx context.Context, arg database.CreateStockAdditionParams) (database.StockAddition, error)
	getStockAdditionFn      func(ctx context.Context, id uuid.UUID) (database.StockAddition, error)
	approveStockAdditionFn  func(ctx context.Context, arg database.ApproveStockAdditionParams) (database.StockAddition, error)
	rejectStockAdditionFn   func(ctx context.Context, arg database.RejectStockAdditionParams) (database.StockAddition, error)
	hasPendingReversalFn    func(ctx context.Context, kotID uuid.UUID) (bool, error)
	createOrderReversalFn   func(ctx context.Context, arg database.CreateOrderReversalParams) (database.OrderReversal, error)
	getOrderReversalFn      func(ctx context.Context, id uuid.UUID) (database.OrderReversal, error)
	approveOrderReversalFn  func(ctx context.Context, arg database.ApproveOrderReversalParams) (database.OrderReversal, error)
	rejectOrderReversalFn   func(ctx context.Context, arg database.RejectOrderReversalParams) (database.OrderReversal, error)
	getBillByKotFn          func(ctx context.Context, kotID uuid.UUID) (database.Bill, error)
	createBillFn            func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	getBillFn               func(ctx context.Context, id uuid.UUID) (database.Bill, error)
	markBillPaidFn          func(ctx context.Context, arg database.MarkBillPaidParams) (database.Bill, error)
}

func (m *mockStore) LockSequence(ctx context.Context, scope string) error {
	return m.lockSequenceFn(ctx, scope)
}
func (m *mockStore) GetLastKotNumber(ctx context.Context, t database.KotType) (string, error) {
	return m.getLastKotNumberFn(ctx, t)
}
func (m *mockStore) GetLastBillNumber(ctx context.Context) (string, error) {
	return m.getLastBillNumberFn(ctx)
}
func (m *mockStore) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}
func (m *mockStore) CreateKot(ctx context.Context, arg database.CreateKotParams) (database.Kot, error) {
	return m.createKotFn(ctx, arg)
}
func (m *mockStore) CreateKotItem(ctx context.Context, arg database.CreateKotItemParams) (database.KotItem, error) {
	return m.createKotItemFn(ctx, arg)
}
func (m *mockStore) GetKot(ctx context.Context, id uuid.UUID) (database.Kot, error) {
	return m.getKotFn(ctx, id)
}
func (m *mockStore) GetKotForUpdate(ctx context.Context, id uuid.UUID) (database.Kot, error) {
	return m.getKotForUpdateFn(ctx, id)
}
func (m *mockStore) UpdateKotStatus(ctx context.Context, arg database.UpdateKotStatusParams) (database.Kot, error) {
	return m.updateKotStatusFn(ctx, arg)
}
func (m *mockStore) MarkKotReversed(ctx context.Context, id uuid.UUID) (database.Kot, error) {
	return m.markKotReversedFn(ctx, id)
}
func (m *mockStore) GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error) {
	return m.getIngredientFn(ctx, id)
}
func (m *mockStore) CreditIngredientStock(ctx context.Context, arg database.CreditIngredientStockParams) (database.Ingredient, error) {
	return m.creditIngredientStockFn(ctx, arg)
}
func (m *mockStore) CreateStockAddition(ctx context.Context, arg database.CreateStockAdditionParams) (database.StockAddition, error) {
	return m.createStockAdditionFn(ctx, arg)
}
func (m *mockStore) GetStockAddition(ctx context.Context, id uuid.UUID) (database.StockAddition, error) {
	return m.getStockAdditionFn(ctx, id)
}
func (m *mockStore) ApproveStockAddition(ctx context.Context, arg database.ApproveStockAdditionParams) (database.StockAddition, error) {
	return m.approveStockAdditionFn(ctx, arg)
}
func (m *mockStore) RejectStockAddition(ctx context.Context, arg database.RejectStockAdditionParams) (database.StockAddition, error) {
	return m.rejectStockAdditionFn(ctx, arg)
}
func (m *mockStore) HasPendingReversal(ctx context.Context, kotID uuid.UUID) (bool, error) {
	return m.hasPendingReversalFn(ctx, kotID)
}
func (m *mockStore) CreateOrderReversal(ctx context.Context, arg database.CreateOrderReversalParams) (database.OrderReversal, error) {
	return m.createOrderReversalFn(ctx, arg)
}
func (m *mockStore) GetOrderReversal(ctx context.Context, id uuid.UUID) (database.OrderReversal, error) {
	return m.getOrderReversalFn(ctx, id)
}
func (m *mockStore) ApproveOrderReversal(ctx context.Context, arg database.ApproveOrderReversalParams) (database.OrderReversal, error) {
	return m.approveOrderReversalFn(ctx, arg)
}
func (m *mockStore) RejectOrderReversal(ctx context.Context, arg database.RejectOrderReversalParams) (database.OrderReversal, error) {
	return m.rejectOrderReversalFn(ctx, arg)
}
func (m *mockStore) GetBillByKot(ctx context.Context, kotID uuid.UUID) (database.Bill, error) {
	return m.getBillByKotFn(ctx, kotID)
}
func (m *mockStore) CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
	return m.createBillFn(ctx, arg)
}
func (m *mockStore) GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error) {
	return m.getBillFn(ctx, id)
}
func (m *mockStore) MarkBillPaid(ctx context.Context, arg database.MarkBillPaidParams) (database.Bill, error) {
	return m.markBillPaidFn(ctx, arg)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}
