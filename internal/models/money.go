package models

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every amount column keeps.
const MoneyScale = 2

// FitsMoneyScale reports whether amount can be stored without rounding.
func FitsMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyScale))
}
