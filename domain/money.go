package domain

import "github.com/shopspring/decimal"

// Currency is the only currency the storefront sells in.
const Currency = "USD"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts an amount to cents, the unit the payment processor charges in.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back to a decimal amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
