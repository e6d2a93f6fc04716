package catalog

import (
	"fmt"
	"strings"
)

// FormatBudgetAmount renders a dollar amount the way the budget widgets
// display it: thousands below one million ($500K), millions above ($2.5M),
// with a trailing .0 stripped.
func FormatBudgetAmount(n int64) string {
	divisor, suffix := 1000.0, "K"
	if n >= 1000000 {
		divisor, suffix = 1000000.0, "M"
	}
	s := fmt.Sprintf("$%v", float64(n)/divisor)
	s = strings.TrimSuffix(s, ".0")
	return s + suffix
}

// FormatBudgets renders a set of budget levels, keyed by amount.
func FormatBudgets(levels []int64) map[int64]string {
	out := make(map[int64]string, len(levels))
	for _, n := range levels {
		out[n] = FormatBudgetAmount(n)
	}
	return out
}
