package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

func (e *ApprovalStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ApprovalStatus(s)
	case string:
		*e = ApprovalStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ApprovalStatus: %T", src)
	}
	return nil
}

type NullApprovalStatus struct {
	ApprovalStatus ApprovalStatus
	Valid          bool // Valid is true if ApprovalStatus is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullApprovalStatus) Scan(value interface{}) error {
	if value == nil {
		ns.ApprovalStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.ApprovalStatus.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullApprovalStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.ApprovalStatus), nil
}

type KotStatus string

const (
	KotStatusPending    KotStatus = "pending"
	KotStatusProcessing KotStatus = "processing"
	KotStatusCompleted  KotStatus = "completed"
	KotStatusCancelled  KotStatus = "cancelled"
	KotStatusReversed   KotStatus = "reversed"
)

func (e *KotStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = KotStatus(s)
	case string:
		*e = KotStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for KotStatus: %T", src)
	}
	return nil
}

type NullKotStatus struct {
	KotStatus KotStatus
	Valid     bool // Valid is true if KotStatus is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullKotStatus) Scan(value interface{}) error {
	if value == nil {
		ns.KotStatus, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.KotStatus.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullKotStatus) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.KotStatus), nil
}

type KotType string

const (
	KotTypeRestaurant KotType = "restaurant"
	KotTypeBar        KotType = "bar"
)

func (e *KotType) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = KotType(s)
	case string:
		*e = KotType(s)
	default:
		return fmt.Errorf("unsupported scan type for KotType: %T", src)
	}
	return nil
}

type NullKotType struct {
	KotType KotType
	Valid   bool // Valid is true if KotType is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullKotType) Scan(value interface{}) error {
	if value == nil {
		ns.KotType, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.KotType.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullKotType) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.KotType), nil
}

type Bill struct {
	ID            uuid.UUID          `json:"id"`
	BillNumber    string             `json:"bill_number"`
	KotID         uuid.UUID          `json:"kot_id"`
	TotalAmount   pgtype.Numeric     `json:"total_amount"`
	Discount      pgtype.Numeric     `json:"discount"`
	ServiceCharge pgtype.Numeric     `json:"service_charge"`
	Tax           pgtype.Numeric     `json:"tax"`
	FinalAmount   pgtype.Numeric     `json:"final_amount"`
	PaymentMethod pgtype.Text        `json:"payment_method"`
	IsPaid        bool               `json:"is_paid"`
	PaidAt        pgtype.Timestamptz `json:"paid_at"`
	GeneratedBy   uuid.UUID          `json:"generated_by"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type Ingredient struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Unit             string         `json:"unit"`
	CurrentStock     pgtype.Numeric `json:"current_stock"`
	MinimumThreshold pgtype.Numeric `json:"minimum_threshold"`
	CostPerUnit      pgtype.Numeric `json:"cost_per_unit"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type Kot struct {
	ID           uuid.UUID      `json:"id"`
	KotNumber    string         `json:"kot_number"`
	CustomerName string         `json:"customer_name"`
	Type         KotType        `json:"type"`
	Status       KotStatus      `json:"status"`
	OrderTime    time.Time      `json:"order_time"`
	ExpectedTime time.Time      `json:"expected_time"`
	TotalAmount  pgtype.Numeric `json:"total_amount"`
	CreatedBy    uuid.UUID      `json:"created_by"`
	ProcessedBy  pgtype.UUID    `json:"processed_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type KotItem struct {
	ID         uuid.UUID      `json:"id"`
	KotID      uuid.UUID      `json:"kot_id"`
	LineNo     int32          `json:"line_no"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Quantity   int32          `json:"quantity"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	TotalPrice pgtype.Numeric `json:"total_price"`
}

type MenuItem struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	Category    KotType        `json:"category"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type MenuItemIngredient struct {
	ID           uuid.UUID      `json:"id"`
	MenuItemID   uuid.UUID      `json:"menu_item_id"`
	IngredientID uuid.UUID      `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

type OrderReversal struct {
	ID              uuid.UUID          `json:"id"`
	KotID           uuid.UUID          `json:"kot_id"`
	Reason          string             `json:"reason"`
	Status          ApprovalStatus     `json:"status"`
	RequestedBy     uuid.UUID          `json:"requested_by"`
	ApprovedBy      pgtype.UUID        `json:"approved_by"`
	RejectionReason pgtype.Text        `json:"rejection_reason"`
	DecidedAt       pgtype.Timestamptz `json:"decided_at"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type StockAddition struct {
	ID           uuid.UUID          `json:"id"`
	IngredientID uuid.UUID          `json:"ingredient_id"`
	Quantity     pgtype.Numeric     `json:"quantity"`
	CostPerUnit  pgtype.Numeric     `json:"cost_per_unit"`
	TotalCost    pgtype.Numeric     `json:"total_cost"`
	Status       ApprovalStatus     `json:"status"`
	AddedBy      uuid.UUID          `json:"added_by"`
	ApprovedBy   pgtype.UUID        `json:"approved_by"`
	Reason       pgtype.Text        `json:"reason"`
	DecidedAt    pgtype.Timestamptz `json:"decided_at"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        pgtype.Text `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         string      `json:"role"`
	IsActive     bool        `json:"is_active"`
	IsDemo       bool        `json:"is_demo"`
	PasswordHash pgtype.Text `json:"password_hash"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
