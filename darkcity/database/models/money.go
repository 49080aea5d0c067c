package models

import "fmt"

// FormatMoney renders minor units as a decimal string for the boundary.
// All internal arithmetic stays in int64 cents.
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// FeeOf applies a basis-point rate to an amount, rounding down.
func FeeOf(amount, bps int64) int64 {
	return amount * bps / 10000
}
