package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/sequence"
	"github.com/kotpos/api/internal/workflow"
	"github.com/shopspring/decimal"
)

// Errors returned by the KOT service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidKotType       = errors.New("type must be restaurant or bar")
	ErrInvalidQuantity      = errors.New("quantity must be >= 1")
	ErrCustomerNameRequired = errors.New("customerName is required")
	ErrInvalidExpectedTime  = errors.New("expectedTime must not precede orderTime")
	ErrInvalidMenuItemID    = errors.New("invalid menuItemId")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrMenuItemInactive     = errors.New("menu item is not active")
	ErrMenuItemCategory     = errors.New("menu item category does not match kot type")
	ErrKotNotFound          = errors.New("kot not found")
	ErrKotStatusChanged     = errors.New("kot status changed concurrently")
)

// KotStore defines the DB methods needed by the KOT lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type KotStore interface {
	sequence.Source
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateKot(ctx context.Context, arg database.CreateKotParams) (database.Kot, error)
	CreateKotItem(ctx context.Context, arg database.CreateKotItemParams) (database.KotItem, error)
	GetKot(ctx context.Context, id uuid.UUID) (database.Kot, error)
	UpdateKotStatus(ctx context.Context, arg database.UpdateKotStatusParams) (database.Kot, error)
}

// NewKotStore creates a KotStore from a DBTX (pool or tx).
type NewKotStore func(db database.DBTX) KotStore

// CreateKotRequest is the input for creating a KOT. Unit prices are always
// taken from the menu.
type CreateKotRequest struct {
	CreatedBy    uuid.UUID
	CustomerName string
	Type         string
	OrderTime    time.Time
	ExpectedTime time.Time
	Items        []CreateKotItemRequest
}

type CreateKotItemRequest struct {
	MenuItemID string
	Quantity   int32
}

// KotResult is a created KOT with its items.
type KotResult struct {
	Kot   database.Kot       `json:"kot"`
	Items []database.KotItem `json:"items"`
}

// UpdateKotStatusRequest asks for a direct status change.
type UpdateKotStatusRequest struct {
	KotID   uuid.UUID
	Status  string
	ActorID uuid.UUID
}

// KotService handles the KOT lifecycle.
type KotService struct {
	pool     TxBeginner
	newStore NewKotStore
	events   events.Publisher
}

func NewKotService(pool TxBeginner, newStore NewKotStore, pub events.Publisher) *KotService {
	return &KotService{pool: pool, newStore: newStore, events: pub}
}

// CreateKot validates the request, prices every line from the menu and
// inserts the KOT under a freshly allocated number. Retries up to
// maxNumberRetries times on kot_number collisions.
func (s *KotService) CreateKot(ctx context.Context, req CreateKotRequest) (*KotResult, error) {
	kotType, err := validateKotRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := withNumberRetry(kotNumberConstraint, func() (*KotResult, error) {
		return s.createKotTx(ctx, req, kotType)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, events.KotCreated, result)
	return result, nil
}

func validateKotRequest(req CreateKotRequest) (database.KotType, error) {
	kotType := database.KotType(req.Type)
	if kotType != database.KotTypeRestaurant && kotType != database.KotTypeBar {
		return "", ErrInvalidKotType
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return "", ErrCustomerNameRequired
	}
	if req.ExpectedTime.Before(req.OrderTime) {
		return "", ErrInvalidExpectedTime
	}
	if len(req.Items) == 0 {
		return "", ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return "", fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	return kotType, nil
}

func (s *KotService) createKotTx(ctx context.Context, req CreateKotRequest, kotType database.KotType) (*KotResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Price items from the menu ---
	total := decimal.Zero
	lines := make([]database.CreateKotItemParams, 0, len(req.Items))
	for i, item := range req.Items {
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !menuItem.IsActive {
			return nil, fmt.Errorf("items[%d] %s: %w", i, menuItem.Name, ErrMenuItemInactive)
		}
		if menuItem.Category != kotType {
			return nil, fmt.Errorf("items[%d] %s: %w", i, menuItem.Name, ErrMenuItemCategory)
		}

		unitPrice := database.NumericToDecimal(menuItem.Price)
		linePrice := unitPrice.Mul(decimal.NewFromInt32(item.Quantity)).Round(billing.MoneyScale)
		total = total.Add(linePrice)
		if !billing.FitsMoney(total) {
			return nil, fmt.Errorf("items[%d] %s: %w", i, menuItem.Name, ErrAmountTooLarge)
		}

		lines = append(lines, database.CreateKotItemParams{
			LineNo:     int32(i + 1),
			MenuItemID: menuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  database.DecimalToNumeric(unitPrice),
			TotalPrice: database.DecimalToNumeric(linePrice),
		})
	}

	// --- Allocate number ---
	kotNumber, err := sequence.NextKotNumber(ctx, store, kotType)
	if err != nil {
		return nil, err
	}

	// --- Insert KOT and items ---
	kot, err := store.CreateKot(ctx, database.CreateKotParams{
		KotNumber:    kotNumber,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Type:         kotType,
		OrderTime:    req.OrderTime,
		ExpectedTime: req.ExpectedTime,
		TotalAmount:  database.DecimalToNumeric(total),
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create kot: %w", err)
	}

	items := make([]database.KotItem, 0, len(lines))
	for _, line := range lines {
		line.KotID = kot.ID
		item, err := store.CreateKotItem(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("create kot item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &KotResult{Kot: kot, Items: items}, nil
}

// UpdateStatus applies a direct status change. The update is conditional on
// the status read in the same transaction, so a concurrent change loses with
// ErrKotStatusChanged.
func (s *KotService) UpdateStatus(ctx context.Context, req UpdateKotStatusRequest) (database.Kot, error) {
	next := database.KotStatus(req.Status)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Kot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetKot(ctx, req.KotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Kot{}, ErrKotNotFound
		}
		return database.Kot{}, fmt.Errorf("get kot: %w", err)
	}

	if err := workflow.ValidateKotTransition(current.Status, next); err != nil {
		return database.Kot{}, err
	}

	kot, err := store.UpdateKotStatus(ctx, database.UpdateKotStatusParams{
		ID:            req.KotID,
		Status:        next,
		ProcessedBy:   pgtype.UUID{Bytes: req.ActorID, Valid: true},
		CurrentStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Kot{}, ErrKotStatusChanged
		}
		return database.Kot{}, fmt.Errorf("update kot status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Kot{}, fmt.Errorf("commit tx: %w", err)
	}

	publish(ctx, s.events, events.KotStatusChanged, kot)
	return kot, nil
}
