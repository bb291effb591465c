package billing

import "github.com/shopspring/decimal"

// ToMinorUnits converts a major-unit amount (reais) to Stripe's minor units (centavos).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts a Stripe minor-unit amount to major units.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
