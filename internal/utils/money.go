package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var trPrinter = message.NewPrinter(language.Turkish)

// FormatTRY renders an amount the way the dashboard shows it: Turkish digit
// grouping, at most two decimals and the lira sign, e.g. "12.500 ₺".
func FormatTRY(amount float64) string {
	if amount == math.Trunc(amount) {
		return trPrinter.Sprintf("%d ₺", int64(amount))
	}
	return trPrinter.Sprintf("%.2f ₺", amount)
}

// FormatPercent renders a percentage with one decimal, e.g. "33,3%".
func FormatPercent(p float64) string {
	return trPrinter.Sprintf("%.1f%%", p)
}
