package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const billColumns = `id, bill_number, kot_id, total_amount, discount, service_charge, tax, final_amount, payment_method, is_paid, paid_at, generated_by, created_at, updated_at`

func scanBill(row interface{ Scan(...any) error }) (Bill, error) {
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.BillNumber,
		&i.KotID,
		&i.TotalAmount,
		&i.Discount,
		&i.ServiceCharge,
		&i.Tax,
		&i.FinalAmount,
		&i.PaymentMethod,
		&i.IsPaid,
		&i.PaidAt,
		&i.GeneratedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createBill = `-- name: CreateBill :one
INSERT INTO bills (bill_number, kot_id, total_amount, discount, service_charge, tax, final_amount, generated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + billColumns

type CreateBillParams struct {
	BillNumber    string         `json:"bill_number"`
	KotID         uuid.UUID      `json:"kot_id"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	Discount      pgtype.Numeric `json:"discount"`
	ServiceCharge pgtype.Numeric `json:"service_charge"`
	Tax           pgtype.Numeric `json:"tax"`
	FinalAmount   pgtype.Numeric `json:"final_amount"`
	GeneratedBy   uuid.UUID      `json:"generated_by"`
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, createBill,
		arg.BillNumber,
		arg.KotID,
		arg.TotalAmount,
		arg.Discount,
		arg.ServiceCharge,
		arg.Tax,
		arg.FinalAmount,
		arg.GeneratedBy,
	)
	return scanBill(row)
}

const getBill = `-- name: GetBill :one
SELECT ` + billColumns + ` FROM bills
WHERE id = $1
`

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBill, id))
}

const getBillByKot = `-- name: GetBillByKot :one
SELECT ` + billColumns + ` FROM bills
WHERE kot_id = $1
`

func (q *Queries) GetBillByKot(ctx context.Context, kotID uuid.UUID) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, getBillByKot, kotID))
}

const getLastBillNumber = `-- name: GetLastBillNumber :one
SELECT bill_number FROM bills
ORDER BY created_at DESC, bill_number DESC
LIMIT 1
`

func (q *Queries) GetLastBillNumber(ctx context.Context) (string, error) {
	row := q.db.QueryRow(ctx, getLastBillNumber)
	var billNumber string
	err := row.Scan(&billNumber)
	return billNumber, err
}

const listBills = `-- name: ListBills :many
SELECT ` + billColumns + ` FROM bills
WHERE ($1::uuid IS NULL OR kot_id = $1::uuid)
  AND ($2::boolean IS NULL OR is_paid = $2::boolean)
ORDER BY created_at DESC
`

type ListBillsParams struct {
	KotID  pgtype.UUID `json:"kot_id"`
	IsPaid pgtype.Bool `json:"is_paid"`
}

func (q *Queries) ListBills(ctx context.Context, arg ListBillsParams) ([]Bill, error) {
	rows, err := q.db.Query(ctx, listBills, arg.KotID, arg.IsPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Bill{}
	for rows.Next() {
		i, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markBillPaid = `-- name: MarkBillPaid :one
UPDATE bills
SET is_paid = true, payment_method = $2, paid_at = now(), updated_at = now()
WHERE id = $1 AND is_paid = false
RETURNING ` + billColumns

type MarkBillPaidParams struct {
	ID            uuid.UUID `json:"id"`
	PaymentMethod string    `json:"payment_method"`
}

// MarkBillPaid returns pgx.ErrNoRows when the bill is missing or already paid.
func (q *Queries) MarkBillPaid(ctx context.Context, arg MarkBillPaidParams) (Bill, error) {
	return scanBill(q.db.QueryRow(ctx, markBillPaid, arg.ID, arg.PaymentMethod))
}
