// Package enum holds the role and payment method values stored in
// CHECK-constrained text columns, plus the role allow-list for each
// operation. KOT and approval statuses are Postgres enums and live in
// package database as KotStatus and ApprovalStatus.
package enum

// ── Group A: Values (CHECK constrained in DB) ──

const (
	RoleAdmin              = "admin"
	RoleRestaurantCashier  = "restaurant_cashier"
	RoleStoreKeeper        = "store_keeper"
	RoleAuthorisingOfficer = "authorising_officer"
	RoleBarman             = "barman"
)

const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMobile       = "mobile"
)

// IsValidRole reports whether s is one of the five staff roles.
func IsValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleRestaurantCashier, RoleStoreKeeper, RoleAuthorisingOfficer, RoleBarman:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodMobile:
		return true
	}
	return false
}

// ── Group B: Role allow-lists per operation ──

var (
	KotCreators        = []string{RoleRestaurantCashier, RoleBarman}
	KotProcessors      = []string{RoleStoreKeeper, RoleAuthorisingOfficer}
	StockRequesters    = []string{RoleStoreKeeper}
	StockViewers       = []string{RoleStoreKeeper, RoleAuthorisingOfficer}
	Approvers          = []string{RoleAuthorisingOfficer}
	ReversalRequesters = []string{RoleRestaurantCashier, RoleBarman, RoleStoreKeeper}
	Billers            = []string{RoleRestaurantCashier, RoleBarman}
	LowStockViewers    = []string{RoleAdmin, RoleAuthorisingOfficer, RoleStoreKeeper}
	Admins             = []string{RoleAdmin}
)
