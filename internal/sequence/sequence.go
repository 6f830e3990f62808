// Package sequence issues human-readable KOT and bill numbers.
//
// Numbers are derived from the most recently created row in their scope and
// must be generated inside the transaction that inserts the new row: the
// scope's advisory lock is held until that transaction ends, and the unique
// constraint on the number column backs it up.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/database"
)

// ScopeBill is the single global numbering scope for bills.
const ScopeBill = "bill"

var (
	ErrMalformedNumber = errors.New("malformed sequence number")
	ErrUnknownKotType  = errors.New("unknown kot type")
)

// Source is satisfied by *database.Queries bound to a transaction.
type Source interface {
	LockSequence(ctx context.Context, scope string) error
	GetLastKotNumber(ctx context.Context, kotType database.KotType) (string, error)
	GetLastBillNumber(ctx context.Context) (string, error)
}

// Format describes a PREFIX-NNN identifier. Width is a minimum: numbers
// past the padding keep growing (REST-999, REST-1000).
type Format struct {
	Prefix string
	Width  int
}

var (
	RestaurantFormat = Format{Prefix: "REST", Width: 3}
	BarFormat        = Format{Prefix: "BAR", Width: 3}
	BillFormat       = Format{Prefix: "BILL", Width: 4}
)

// KotFormat returns the numbering format for a KOT type.
func KotFormat(t database.KotType) (Format, error) {
	switch t {
	case database.KotTypeRestaurant:
		return RestaurantFormat, nil
	case database.KotTypeBar:
		return BarFormat, nil
	}
	return Format{}, fmt.Errorf("%w: %q", ErrUnknownKotType, t)
}

// KotScope is the lock scope for KOT numbers of one type.
func KotScope(t database.KotType) string {
	return "kot:" + string(t)
}

func (f Format) Render(n int) string {
	return fmt.Sprintf("%s-%0*d", f.Prefix, f.Width, n)
}

// Parse extracts the trailing integer. Anything that Render could not have
// produced is rejected with ErrMalformedNumber.
func (f Format) Parse(s string) (int, error) {
	prefix, digits, ok := strings.Cut(s, "-")
	if !ok || prefix != f.Prefix || len(digits) < f.Width {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedNumber, s, err)
	}
	return n, nil
}

// Next returns the identifier following last. An empty scope starts at 1.
func (f Format) Next(last string, lookupErr error) (string, error) {
	if errors.Is(lookupErr, pgx.ErrNoRows) {
		return f.Render(1), nil
	}
	if lookupErr != nil {
		return "", fmt.Errorf("get last %s number: %w", f.Prefix, lookupErr)
	}
	n, err := f.Parse(last)
	if err != nil {
		return "", err
	}
	return f.Render(n + 1), nil
}

// NextKotNumber locks the type's scope and returns its next KOT number.
func NextKotNumber(ctx context.Context, src Source, t database.KotType) (string, error) {
	f, err := KotFormat(t)
	if err != nil {
		return "", err
	}
	if err := src.LockSequence(ctx, KotScope(t)); err != nil {
		return "", fmt.Errorf("lock %s sequence: %w", KotScope(t), err)
	}
	last, err := src.GetLastKotNumber(ctx, t)
	return f.Next(last, err)
}

// NextBillNumber locks the global bill scope and returns the next bill number.
func NextBillNumber(ctx context.Context, src Source) (string, error) {
	if err := src.LockSequence(ctx, ScopeBill); err != nil {
		return "", fmt.Errorf("lock %s sequence: %w", ScopeBill, err)
	}
	last, err := src.GetLastBillNumber(ctx)
	return BillFormat.Next(last, err)
}
