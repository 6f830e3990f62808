package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/sequence"
	"github.com/kotpos/api/internal/workflow"
	"github.com/shopspring/decimal"
)

// Errors returned by the bill service.
var (
	ErrKotNotBillable       = errors.New("kot cannot be billed in its current status")
	ErrKotAlreadyBilled     = errors.New("kot already has a bill")
	ErrInvalidDiscount      = errors.New("discount must be between 0 and the bill total")
	ErrBillNotFound         = errors.New("bill not found")
	ErrBillAlreadyPaid      = errors.New("bill is already paid")
	ErrInvalidPaymentMethod = errors.New("invalid paymentMethod")
)

// BillStore defines the DB methods needed to bill a KOT.
type BillStore interface {
	sequence.Source
	GetKotForUpdate(ctx context.Context, id uuid.UUID) (database.Kot, error)
	GetBillByKot(ctx context.Context, kotID uuid.UUID) (database.Bill, error)
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	MarkBillPaid(ctx context.Context, arg database.MarkBillPaidParams) (database.Bill, error)
}

type NewBillStore func(db database.DBTX) BillStore

type CreateBillRequest struct {
	KotID       string
	Discount    decimal.Decimal
	GeneratedBy uuid.UUID
}

type MarkBillPaidRequest struct {
	BillID        uuid.UUID
	PaymentMethod string
}

// BillService generates bills for KOTs and records payment.
type BillService struct {
	pool       TxBeginner
	newStore   NewBillStore
	calculator *billing.Calculator
	events     events.Publisher
}

func NewBillService(pool TxBeginner, newStore NewBillStore, calc *billing.Calculator, pub events.Publisher) *BillService {
	return &BillService{pool: pool, newStore: newStore, calculator: calc, events: pub}
}

// Create bills a KOT once. Retries up to maxNumberRetries times on
// bill_number collisions.
func (s *BillService) Create(ctx context.Context, req CreateBillRequest) (database.Bill, error) {
	kotID, err := uuid.Parse(req.KotID)
	if err != nil {
		return database.Bill{}, ErrInvalidKotID
	}
	if req.Discount.IsNegative() {
		return database.Bill{}, ErrInvalidDiscount
	}

	bill, err := withNumberRetry(billNumberConstraint, func() (database.Bill, error) {
		return s.createBillTx(ctx, kotID, req)
	})
	if err != nil {
		return database.Bill{}, err
	}

	publish(ctx, s.events, events.BillCreated, bill, billRoles()...)
	return bill, nil
}

func (s *BillService) createBillTx(ctx context.Context, kotID uuid.UUID, req CreateBillRequest) (database.Bill, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	kot, err := store.GetKotForUpdate(ctx, kotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrKotNotFound
		}
		return database.Bill{}, fmt.Errorf("get kot: %w", err)
	}
	if !workflow.IsBillable(kot.Status) {
		return database.Bill{}, fmt.Errorf("%w: %s", ErrKotNotBillable, kot.Status)
	}

	_, err = store.GetBillByKot(ctx, kotID)
	switch {
	case err == nil:
		return database.Bill{}, ErrKotAlreadyBilled
	case !errors.Is(err, pgx.ErrNoRows):
		return database.Bill{}, fmt.Errorf("get bill by kot: %w", err)
	}

	breakdown, err := s.calculator.Compute(database.NumericToDecimal(kot.TotalAmount), req.Discount)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidDiscount) {
			return database.Bill{}, ErrInvalidDiscount
		}
		return database.Bill{}, fmt.Errorf("compute bill: %w", err)
	}

	billNumber, err := sequence.NextBillNumber(ctx, store)
	if err != nil {
		return database.Bill{}, err
	}

	bill, err := store.CreateBill(ctx, database.CreateBillParams{
		BillNumber:    billNumber,
		KotID:         kotID,
		TotalAmount:   database.DecimalToNumeric(breakdown.Total),
		Discount:      database.DecimalToNumeric(breakdown.Discount),
		ServiceCharge: database.DecimalToNumeric(breakdown.ServiceCharge),
		Tax:           database.DecimalToNumeric(breakdown.Tax),
		FinalAmount:   database.DecimalToNumeric(breakdown.Final),
		GeneratedBy:   req.GeneratedBy,
	})
	if err != nil {
		if isUniqueViolation(err, billKotConstraint) {
			return database.Bill{}, ErrKotAlreadyBilled
		}
		return database.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Bill{}, fmt.Errorf("commit tx: %w", err)
	}
	return bill, nil
}

// MarkPaid settles an unpaid bill. An empty payment method means cash.
func (s *BillService) MarkPaid(ctx context.Context, req MarkBillPaidRequest) (database.Bill, error) {
	method := req.PaymentMethod
	if method == "" {
		method = enum.PaymentMethodCash
	}
	if !enum.IsValidPaymentMethod(method) {
		return database.Bill{}, ErrInvalidPaymentMethod
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Bill{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetBill(ctx, req.BillID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrBillNotFound
		}
		return database.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	if current.IsPaid {
		return database.Bill{}, ErrBillAlreadyPaid
	}

	bill, err := store.MarkBillPaid(ctx, database.MarkBillPaidParams{
		ID:            req.BillID,
		PaymentMethod: method,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Bill{}, ErrBillAlreadyPaid
		}
		return database.Bill{}, fmt.Errorf("mark bill paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Bill{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.BillPaid, bill, billRoles()...)
	return bill, nil
}

func billRoles() []string {
	return append(append([]string(nil), enum.Billers...), enum.RoleAdmin)
}
