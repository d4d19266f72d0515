package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var clpPrinter = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP formats an amount in Chilean pesos, which have no minor unit
func FormatCLP(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	return "$" + clpPrinter.Sprint(number.Decimal(whole, number.MaxFractionDigits(0)))
}
