// Package currencyutils parses liter volumes from Swiss fuel invoices and
// formats amounts, per-liter rates and volumes for output.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Display precision
const (
	AmountPlaces = 2
	RatePlaces   = 4
	VolumePlaces = 2
)

var (
	thousandsMarks = regexp.MustCompile(`['’\s]`)
	volumeUnits    = regexp.MustCompile(`(?i)(liters|litres|liter|litre|l)$`)
)

// ParseVolume parses a liter quantity such as "1'234.50", "1234,5" or "500 L".
// A single comma is always the decimal separator, so "45,123" is 45.123
// liters and never 45123. An empty string is an error.
func ParseVolume(volumeStr string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(volumeStr)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("volume is empty")
	}
	trimmed = strings.TrimSpace(volumeUnits.ReplaceAllString(trimmed, ""))

	volume, err := decimal.NewFromString(standardizeVolume(trimmed))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse volume '%s': %w", volumeStr, err)
	}
	return volume, nil
}

// standardizeVolume converts Swiss and European number formatting into the
// plain form accepted by decimal.NewFromString.
func standardizeVolume(volumeStr string) string {
	volumeStr = thousandsMarks.ReplaceAllString(volumeStr, "")

	hasDot := strings.Contains(volumeStr, ".")
	switch commas := strings.Count(volumeStr, ","); {
	case commas == 0:
	case hasDot && strings.LastIndex(volumeStr, ".") < strings.LastIndex(volumeStr, ","):
		// 1.234,56
		volumeStr = strings.ReplaceAll(volumeStr, ".", "")
		volumeStr = strings.Replace(volumeStr, ",", ".", 1)
	case hasDot || commas > 1:
		// 1,234.56 or 1,234,567
		volumeStr = strings.ReplaceAll(volumeStr, ",", "")
	default:
		// 1234,5 and 45,123
		volumeStr = strings.Replace(volumeStr, ",", ".", 1)
	}
	return volumeStr
}

// FormatAmount formats an amount with two decimals and a currency code,
// e.g. "CHF 340.60". No thousands separators are inserted.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(AmountPlaces)
	if currency == "" {
		return formatted
	}
	return strings.ToUpper(currency) + " " + formatted
}

// FormatRate renders a per-liter rate with four decimals.
func FormatRate(rate decimal.Decimal) string {
	return rate.StringFixed(RatePlaces)
}

// FormatVolume renders a volume with two decimals.
func FormatVolume(volume decimal.Decimal) string {
	return volume.StringFixed(VolumePlaces)
}
