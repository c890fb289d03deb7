// Package finance holds the pure aggregation functions behind the dashboard
// and reports. Nothing here touches a store or reads the wall clock.
package finance

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ChangePct formats the period-over-period change of current against previous
// as "+X.X%", "-X.X%" or one of the fixed strings "+100%" and "0%" when
// previous is zero.
func ChangePct(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		if current.IsPositive() {
			return "+100%"
		}
		return "0%"
	}

	change := current.Sub(previous).Div(previous).Mul(hundred).Round(1)
	sign := ""
	if !change.IsNegative() {
		sign = "+"
	}
	return sign + change.StringFixed(1) + "%"
}
