package profile

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders a whole-dollar amount with a leading "$" and
// en-US thousands separators, e.g. "$120,000".
func FormatCurrency(amount int64) string {
	return "$" + printer.Sprintf("%d", amount)
}
