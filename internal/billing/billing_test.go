package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(d("0.05"), d("0.10"))
	require.NoError(t, err)
	return c
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name                string
		total, discount     string
		service, tax, final string
	}{
		{"no discount", "250", "0", "25.00", "12.50", "287.50"},
		{"with discount", "250", "37.5", "25.00", "12.50", "250.00"},
		{"rounding", "33.33", "0", "3.33", "1.67", "38.33"},
		{"zero total", "0", "0", "0.00", "0.00", "0.00"},
		{"discount equals gross", "100", "115", "10.00", "5.00", "0.00"},
	}

	c := defaultCalculator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := c.Compute(d(tt.total), d(tt.discount))
			require.NoError(t, err)
			assert.Equal(t, tt.service, b.ServiceCharge.StringFixed(2))
			assert.Equal(t, tt.tax, b.Tax.StringFixed(2))
			assert.Equal(t, tt.final, b.Final.StringFixed(2))

			sum := b.Total.Add(b.ServiceCharge).Add(b.Tax).Sub(b.Discount)
			assert.True(t, sum.Equal(b.Final), "parts must add up to final")
		})
	}
}

func TestCompute_InvalidDiscount(t *testing.T) {
	c := defaultCalculator(t)

	_, err := c.Compute(d("100"), d("-1"))
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = c.Compute(d("100"), d("115.01"))
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestCompute_GrossTooLarge(t *testing.T) {
	c := defaultCalculator(t)

	_, err := c.Compute(d("9000000000"), decimal.Zero)
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = c.Compute(d("8000000000"), decimal.Zero)
	assert.NoError(t, err)
}

func TestFitsMoney(t *testing.T) {
	assert.True(t, FitsMoney(MaxMoney))
	assert.False(t, FitsMoney(MaxMoney.Add(d("0.01"))))
}

func TestCompute_NegativeTotal(t *testing.T) {
	_, err := defaultCalculator(t).Compute(d("-5"), decimal.Zero)
	assert.ErrorIs(t, err, ErrNegativeTotal)
}

func TestNewCalculator_ValidatesRates(t *testing.T) {
	_, err := NewCalculator(d("-0.01"), d("0.1"))
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = NewCalculator(d("0.05"), d("1.5"))
	assert.ErrorIs(t, err, ErrInvalidRate)

	c, err := NewCalculator(decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	b, err := c.Compute(d("99.99"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, b.Final.Equal(d("99.99")))
}
