// Package billing computes bill amounts from a KOT total.
//
// One formula is used everywhere:
//
//	serviceCharge = total × serviceChargeRate
//	tax           = total × taxRate
//	final         = total + serviceCharge + tax − discount
//
// Every component is rounded half away from zero to two decimal places
// before being summed, so the stored parts always add up to the final amount.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for currency amounts.
const MoneyScale = 2

// MaxMoney is the largest amount a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")

var (
	ErrAmountTooLarge  = errors.New("amount exceeds 9999999999.99")
	ErrInvalidRate     = errors.New("rate must be between 0 and 1")
	ErrNegativeTotal   = errors.New("total must be >= 0")
	ErrInvalidDiscount = errors.New("discount must be between 0 and the charged amount")
)

// Calculator applies flat percentage rates configured per deployment.
type Calculator struct {
	taxRate           decimal.Decimal
	serviceChargeRate decimal.Decimal
}

// Breakdown is the itemised result of a bill calculation.
type Breakdown struct {
	Total         decimal.Decimal
	ServiceCharge decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Final         decimal.Decimal
}

// NewCalculator validates the rates, expressed as fractions (0.05 = 5%).
func NewCalculator(taxRate, serviceChargeRate decimal.Decimal) (*Calculator, error) {
	for name, r := range map[string]decimal.Decimal{"tax": taxRate, "service charge": serviceChargeRate} {
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%s: %w", name, ErrInvalidRate)
		}
	}
	return &Calculator{taxRate: taxRate, serviceChargeRate: serviceChargeRate}, nil
}

func (c *Calculator) TaxRate() decimal.Decimal           { return c.taxRate }
func (c *Calculator) ServiceChargeRate() decimal.Decimal { return c.serviceChargeRate }

// Compute returns the bill breakdown for a KOT total and an optional discount.
func (c *Calculator) Compute(total, discount decimal.Decimal) (Breakdown, error) {
	if total.IsNegative() {
		return Breakdown{}, ErrNegativeTotal
	}
	total = total.Round(MoneyScale)
	discount = discount.Round(MoneyScale)

	serviceCharge := total.Mul(c.serviceChargeRate).Round(MoneyScale)
	tax := total.Mul(c.taxRate).Round(MoneyScale)
	gross := total.Add(serviceCharge).Add(tax)
	if !FitsMoney(gross) {
		return Breakdown{}, ErrAmountTooLarge
	}

	if discount.IsNegative() || discount.GreaterThan(gross) {
		return Breakdown{}, ErrInvalidDiscount
	}

	return Breakdown{
		Total:         total,
		ServiceCharge: serviceCharge,
		Tax:           tax,
		Discount:      discount,
		Final:         gross.Sub(discount),
	}, nil
}

// FitsMoney reports whether d can be stored in a money column.
func FitsMoney(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(MaxMoney)
}
