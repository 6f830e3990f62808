// Package workflow holds the transition tables for KOTs and for the
// approval-style entities (stock additions, order reversals).
package workflow

import (
	"errors"
	"fmt"

	"github.com/kotpos/api/internal/database"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown status")
)

// kotTransitions lists the statuses reachable through a direct status
// change. Reversed is absent: only an approved order reversal sets it.
var kotTransitions = map[database.KotStatus][]database.KotStatus{
	database.KotStatusPending:    {database.KotStatusProcessing, database.KotStatusCancelled},
	database.KotStatusProcessing: {database.KotStatusCompleted},
}

// approvalTransitions is shared by stock additions and order reversals.
var approvalTransitions = map[database.ApprovalStatus][]database.ApprovalStatus{
	database.ApprovalStatusPending: {database.ApprovalStatusApproved, database.ApprovalStatusRejected},
}

func IsKotStatus(s database.KotStatus) bool {
	switch s {
	case database.KotStatusPending,
		database.KotStatusProcessing,
		database.KotStatusCompleted,
		database.KotStatusCancelled,
		database.KotStatusReversed:
		return true
	}
	return false
}

func IsApprovalStatus(s database.ApprovalStatus) bool {
	switch s {
	case database.ApprovalStatusPending,
		database.ApprovalStatusApproved,
		database.ApprovalStatusRejected:
		return true
	}
	return false
}

// ValidateKotTransition checks a requested status change on a KOT.
func ValidateKotTransition(current, next database.KotStatus) error {
	if !IsKotStatus(next) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if next == database.KotStatusReversed {
		return fmt.Errorf("%w: %s is only reachable through an approved order reversal", ErrInvalidTransition, next)
	}
	return check(kotTransitions, current, next)
}

// ValidateApprovalTransition checks a decision on a stock addition or order
// reversal. Decided entities are terminal.
func ValidateApprovalTransition(current, next database.ApprovalStatus) error {
	if !IsApprovalStatus(next) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	return check(approvalTransitions, current, next)
}

// NextKotStatuses returns the statuses a KOT may move to from current.
func NextKotStatuses(current database.KotStatus) []database.KotStatus {
	return append([]database.KotStatus(nil), kotTransitions[current]...)
}

// IsBillable reports whether a KOT in status s may be billed.
func IsBillable(s database.KotStatus) bool {
	return s != database.KotStatusReversed && s != database.KotStatusCancelled
}

func check[S ~string](table map[S][]S, current, next S) error {
	allowed, ok := table[current]
	if !ok {
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}
