package services

import (
	"github.com/shopspring/decimal"
)

// Money columns are numeric(14,2): two decimals, twelve integer digits.
const moneyScale = 2

var moneyLimit = decimal.New(1, 12)

// checkMoney rejects amounts the money columns cannot store exactly
func checkMoney(field, label string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(moneyScale)) {
		return validationError(field, label+" must have at most 2 decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(moneyLimit) {
		return validationError(field, label+" must be less than 1000000000000")
	}
	return nil
}

func checkSellPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return validationError("sellPrice", "Sell price must be zero or greater")
	}
	return checkMoney("sellPrice", "Sell price", price)
}

func checkCostPrice(cost decimal.Decimal) error {
	if !cost.IsPositive() {
		return validationError("costPrice", "Cost price must be greater than 0")
	}
	return checkMoney("costPrice", "Cost price", cost)
}
