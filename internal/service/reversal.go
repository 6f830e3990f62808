package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/workflow"
)

// Errors returned by the order reversal service.
var (
	ErrInvalidKotID          = errors.New("invalid kotId")
	ErrReversalReasonMissing = errors.New("reason is required")
	ErrKotAlreadyReversed    = errors.New("kot is already reversed")
	ErrReversalPending       = errors.New("a reversal is already pending for this kot")
	ErrReversalNotFound      = errors.New("order reversal not found")
)

// ReversalStore defines the DB methods needed by order reversal approval.
type ReversalStore interface {
	GetKotForUpdate(ctx context.Context, id uuid.UUID) (database.Kot, error)
	HasPendingReversal(ctx context.Context, kotID uuid.UUID) (bool, error)
	CreateOrderReversal(ctx context.Context, arg database.CreateOrderReversalParams) (database.OrderReversal, error)
	GetOrderReversal(ctx context.Context, id uuid.UUID) (database.OrderReversal, error)
	ApproveOrderReversal(ctx context.Context, arg database.ApproveOrderReversalParams) (database.OrderReversal, error)
	RejectOrderReversal(ctx context.Context, arg database.RejectOrderReversalParams) (database.OrderReversal, error)
	MarkKotReversed(ctx context.Context, id uuid.UUID) (database.Kot, error)
}

type NewReversalStore func(db database.DBTX) ReversalStore

type CreateReversalRequest struct {
	KotID       string
	Reason      string
	RequestedBy uuid.UUID
}

// ReversalApprovalResult is an approved reversal and the reversed KOT.
type ReversalApprovalResult struct {
	Reversal database.OrderReversal `json:"order_reversal"`
	Kot      database.Kot           `json:"kot"`
}

// ReversalService handles order reversal requests and their approval.
type ReversalService struct {
	pool     TxBeginner
	newStore NewReversalStore
	events   events.Publisher
}

func NewReversalService(pool TxBeginner, newStore NewReversalStore, pub events.Publisher) *ReversalService {
	return &ReversalService{pool: pool, newStore: newStore, events: pub}
}

// Create files a pending reversal. The KOT row is locked so two requests for
// the same KOT serialize on the pending check.
func (s *ReversalService) Create(ctx context.Context, req CreateReversalRequest) (database.OrderReversal, error) {
	kotID, err := uuid.Parse(req.KotID)
	if err != nil {
		return database.OrderReversal{}, ErrInvalidKotID
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return database.OrderReversal{}, ErrReversalReasonMissing
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderReversal{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	kot, err := store.GetKotForUpdate(ctx, kotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderReversal{}, ErrKotNotFound
		}
		return database.OrderReversal{}, fmt.Errorf("get kot: %w", err)
	}
	if kot.Status == database.KotStatusReversed {
		return database.OrderReversal{}, ErrKotAlreadyReversed
	}

	pending, err := store.HasPendingReversal(ctx, kotID)
	if err != nil {
		return database.OrderReversal{}, fmt.Errorf("check pending reversal: %w", err)
	}
	if pending {
		return database.OrderReversal{}, ErrReversalPending
	}

	reversal, err := store.CreateOrderReversal(ctx, database.CreateOrderReversalParams{
		KotID:       kotID,
		Reason:      reason,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		if isUniqueViolation(err, pendingReversalIndex) {
			return database.OrderReversal{}, ErrReversalPending
		}
		return database.OrderReversal{}, fmt.Errorf("create order reversal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderReversal{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.ReversalCreated, reversal, enum.Approvers...)
	return reversal, nil
}

// Approve decides the reversal and moves its KOT to reversed in one
// transaction. The KOT's other columns are left as they were.
func (s *ReversalService) Approve(ctx context.Context, id, approverID uuid.UUID) (*ReversalApprovalResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := checkReversalPending(ctx, store, id, database.ApprovalStatusApproved); err != nil {
		return nil, err
	}

	reversal, err := store.ApproveOrderReversal(ctx, database.ApproveOrderReversalParams{
		ID:         id,
		ApprovedBy: approverID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order reversal: %w", ErrAlreadyDecided)
		}
		return nil, fmt.Errorf("approve order reversal: %w", err)
	}

	kot, err := store.MarkKotReversed(ctx, reversal.KotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKotNotFound
		}
		return nil, fmt.Errorf("mark kot reversed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	result := &ReversalApprovalResult{Reversal: reversal, Kot: kot}
	publish(ctx, s.events, events.ReversalApproved, result)
	return result, nil
}

// Reject decides the reversal. The reason is optional.
func (s *ReversalService) Reject(ctx context.Context, id, approverID uuid.UUID, reason string) (database.OrderReversal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.OrderReversal{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := checkReversalPending(ctx, store, id, database.ApprovalStatusRejected); err != nil {
		return database.OrderReversal{}, err
	}

	rejection := pgtype.Text{}
	if r := strings.TrimSpace(reason); r != "" {
		rejection = pgtype.Text{String: r, Valid: true}
	}

	reversal, err := store.RejectOrderReversal(ctx, database.RejectOrderReversalParams{
		ID:              id,
		ApprovedBy:      approverID,
		RejectionReason: rejection,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderReversal{}, fmt.Errorf("order reversal: %w", ErrAlreadyDecided)
		}
		return database.OrderReversal{}, fmt.Errorf("reject order reversal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.OrderReversal{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.ReversalRejected, reversal)
	return reversal, nil
}

func checkReversalPending(ctx context.Context, store ReversalStore, id uuid.UUID, next database.ApprovalStatus) error {
	current, err := store.GetOrderReversal(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReversalNotFound
		}
		return fmt.Errorf("get order reversal: %w", err)
	}
	if err := workflow.ValidateApprovalTransition(current.Status, next); err != nil {
		return fmt.Errorf("order reversal is %s: %w", current.Status, ErrAlreadyDecided)
	}
	return nil
}
