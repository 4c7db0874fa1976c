package util

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var guaraniPrinter = message.NewPrinter(language.MustParse("es-PY"))

// FormatGuarani renders an amount in guaraníes for user-facing text such as
// notification emails. Guaraníes carry no minor unit.
func FormatGuarani(amount int64) string {
	return guaraniPrinter.Sprintf("₲ %v", amount)
}

// FormatDate renders a timestamp for notification payloads.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}
