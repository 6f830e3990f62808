package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/ledger"
	"github.com/kotpos/api/internal/workflow"
	"github.com/shopspring/decimal"
)

// Errors returned by the stock addition service.
var (
	ErrInvalidIngredientID     = errors.New("invalid ingredientId")
	ErrIngredientNotFound      = errors.New("ingredient not found")
	ErrInvalidStockQuantity    = errors.New("quantity must be > 0")
	ErrInvalidCostPerUnit      = errors.New("costPerUnit must be >= 0")
	ErrStockAdditionNotFound   = errors.New("stock addition not found")
	ErrAlreadyDecided          = errors.New("already decided")
	ErrRejectionReasonRequired = errors.New("reason is required")
)

// StockStore defines the DB methods needed by stock addition approval.
type StockStore interface {
	ledger.Store
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	CreateStockAddition(ctx context.Context, arg database.CreateStockAdditionParams) (database.StockAddition, error)
	GetStockAddition(ctx context.Context, id uuid.UUID) (database.StockAddition, error)
	ApproveStockAddition(ctx context.Context, arg database.ApproveStockAdditionParams) (database.StockAddition, error)
	RejectStockAddition(ctx context.Context, arg database.RejectStockAdditionParams) (database.StockAddition, error)
}

type NewStockStore func(db database.DBTX) StockStore

type CreateStockAdditionRequest struct {
	IngredientID string
	Quantity     decimal.Decimal
	CostPerUnit  decimal.Decimal
	AddedBy      uuid.UUID
}

// StockApprovalResult is an approved addition and the credited ingredient.
type StockApprovalResult struct {
	Addition   database.StockAddition `json:"stock_addition"`
	Ingredient database.Ingredient    `json:"ingredient"`
}

// StockService handles stock addition requests and their approval.
type StockService struct {
	pool     TxBeginner
	newStore NewStockStore
	events   events.Publisher
}

func NewStockService(pool TxBeginner, newStore NewStockStore, pub events.Publisher) *StockService {
	return &StockService{pool: pool, newStore: newStore, events: pub}
}

// Create records a pending stock addition. Stock is untouched until approval.
func (s *StockService) Create(ctx context.Context, req CreateStockAdditionRequest) (database.StockAddition, error) {
	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		return database.StockAddition{}, ErrInvalidIngredientID
	}

	// Checks run on the rounded values that will be stored.
	quantity := req.Quantity.Round(ledger.StockScale)
	cost := req.CostPerUnit.Round(billing.MoneyScale)
	if !quantity.IsPositive() {
		return database.StockAddition{}, ErrInvalidStockQuantity
	}
	if cost.IsNegative() {
		return database.StockAddition{}, ErrInvalidCostPerUnit
	}
	if !ledger.FitsStock(quantity) {
		return database.StockAddition{}, fmt.Errorf("quantity: %w", ErrStockTooLarge)
	}
	totalCost := quantity.Mul(cost).Round(billing.MoneyScale)
	if !billing.FitsMoney(cost) || !billing.FitsMoney(totalCost) {
		return database.StockAddition{}, fmt.Errorf("totalCost: %w", ErrAmountTooLarge)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.StockAddition{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetIngredient(ctx, ingredientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.StockAddition{}, ErrIngredientNotFound
		}
		return database.StockAddition{}, fmt.Errorf("get ingredient: %w", err)
	}

	addition, err := store.CreateStockAddition(ctx, database.CreateStockAdditionParams{
		IngredientID: ingredientID,
		Quantity:     database.DecimalToNumeric(quantity),
		CostPerUnit:  database.DecimalToNumeric(cost),
		TotalCost:    database.DecimalToNumeric(totalCost),
		AddedBy:      req.AddedBy,
	})
	if err != nil {
		return database.StockAddition{}, fmt.Errorf("create stock addition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.StockAddition{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.StockAdditionCreated, addition, enum.Approvers...)
	return addition, nil
}

// Approve decides a pending addition and credits the ingredient in the same
// transaction. Only the caller whose guarded update succeeds credits stock.
func (s *StockService) Approve(ctx context.Context, id, approverID uuid.UUID) (*StockApprovalResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := s.checkPending(ctx, store, id, database.ApprovalStatusApproved); err != nil {
		return nil, err
	}

	addition, err := store.ApproveStockAddition(ctx, database.ApproveStockAdditionParams{
		ID:         id,
		ApprovedBy: approverID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stock addition: %w", ErrAlreadyDecided)
		}
		return nil, fmt.Errorf("approve stock addition: %w", err)
	}

	ingredient, err := ledger.Credit(ctx, store, addition.IngredientID, database.NumericToDecimal(addition.Quantity))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	result := &StockApprovalResult{Addition: addition, Ingredient: ingredient}
	publish(ctx, s.events, events.StockAdditionApproved, result, enum.StockViewers...)
	return result, nil
}

// Reject decides a pending addition without touching stock.
func (s *StockService) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (database.StockAddition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return database.StockAddition{}, ErrRejectionReasonRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.StockAddition{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := s.checkPending(ctx, store, id, database.ApprovalStatusRejected); err != nil {
		return database.StockAddition{}, err
	}

	addition, err := store.RejectStockAddition(ctx, database.RejectStockAdditionParams{
		ID:         id,
		ApprovedBy: approverID,
		Reason:     reason,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.StockAddition{}, fmt.Errorf("stock addition: %w", ErrAlreadyDecided)
		}
		return database.StockAddition{}, fmt.Errorf("reject stock addition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.StockAddition{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.StockAdditionRejected, addition, enum.StockViewers...)
	return addition, nil
}

func (s *StockService) checkPending(ctx context.Context, store StockStore, id uuid.UUID, next database.ApprovalStatus) error {
	current, err := store.GetStockAddition(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStockAdditionNotFound
		}
		return fmt.Errorf("get stock addition: %w", err)
	}
	if err := workflow.ValidateApprovalTransition(current.Status, next); err != nil {
		return fmt.Errorf("stock addition is %s: %w", current.Status, ErrAlreadyDecided)
	}
	return nil
}
