// Package currency renders box-office figures for display. Conversion uses
// a fixed exchange rate and makes no accuracy promise.
package currency

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is a supported display currency.
type Currency string

const (
	USD Currency = "USD"
	JPY Currency = "JPY"
)

// DefaultJPYRate is yen per dollar when nothing else is configured.
const DefaultJPYRate = 150.0

// Parse accepts a case-insensitive currency code. Empty input returns "".
func Parse(raw string) (Currency, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case string(USD):
		return USD, nil
	case string(JPY):
		return JPY, nil
	default:
		return "", fmt.Errorf("currency must be one of USD, JPY")
	}
}

// Formatter renders USD amounts in a display currency.
type Formatter struct {
	jpyRate float64
	printer *message.Printer
}

// NewFormatter builds a Formatter; a non-positive rate falls back to
// DefaultJPYRate.
func NewFormatter(jpyRate float64) *Formatter {
	if jpyRate <= 0 {
		jpyRate = DefaultJPYRate
	}
	return &Formatter{
		jpyRate: jpyRate,
		printer: message.NewPrinter(language.English),
	}
}

// ToJPY converts dollars to yen, rounded to the nearest yen.
func (f *Formatter) ToJPY(amountUSD int64) int64 {
	return int64(math.Round(float64(amountUSD) * f.jpyRate))
}

// Format renders amountUSD in c, e.g. "$1,234,567" or "¥185,185,050".
func (f *Formatter) Format(amountUSD int64, c Currency) string {
	switch c {
	case JPY:
		return "¥" + f.group(f.ToJPY(amountUSD))
	default:
		return "$" + f.group(amountUSD)
	}
}

func (f *Formatter) group(n int64) string {
	return f.printer.Sprintf("%d", n)
}
