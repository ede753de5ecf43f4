package models

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var yenPrinter = message.NewPrinter(language.Japanese)

// FormatYen renders an amount in yen with digit grouping, e.g. ¥1,200
func FormatYen(amount int64) string {
	return yenPrinter.Sprintf("¥%d", amount)
}
