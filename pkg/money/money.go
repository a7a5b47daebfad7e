// Package money formats minor-unit amounts. All persisted amounts in tally
// are int64 cents; formatting happens only at the response edge.
package money

import "fmt"

// FormatCents renders an amount in minor units as a fixed two-decimal string,
// e.g. 2500 -> "25.00", -150 -> "-1.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
