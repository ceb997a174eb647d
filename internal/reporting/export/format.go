package export

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

// Rupiah formats an amount the Indonesian way, e.g. "Rp 40.000" or
// "Rp 18.000,50". Cents are shown only when non-zero.
func Rupiah(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	d = d.Round(2)
	whole := d.Truncate(0)
	out := printer.Sprintf("Rp %s%d", sign, whole.IntPart())
	if cents := d.Sub(whole).Shift(2).IntPart(); cents != 0 {
		out += fmt.Sprintf(",%02d", cents)
	}
	return out
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Tanggal formats a date as "14 Maret 2025".
func Tanggal(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

func tanggalPtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return Tanggal(*t)
}

func timestamp(t time.Time) string {
	return fmt.Sprintf("%s %02d:%02d", Tanggal(t), t.Hour(), t.Minute())
}
