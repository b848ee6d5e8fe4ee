// Package format renders product fields for display the way the dashboard
// shows them: en-US dates and USD prices, with "N/A" for anything missing.
package format

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is shown in place of a missing value
const NotAvailable = "N/A"

const dateLayout = "Jan 2, 2006"

var printer = message.NewPrinter(language.AmericanEnglish)

// accepted createdAt layouts, most specific first
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Date formats an ISO-8601 timestamp as "Oct 15, 2026". The date is taken in
// UTC. Empty or unparsable input yields NotAvailable.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(dateLayout)
		}
	}
	return NotAvailable
}

// Price formats a price in US dollars, e.g. "$1,234.50"
func Price(v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	if v < 0 {
		return "-$" + printer.Sprintf("%.2f", -v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}

// Stock formats a stock count. Zero is a real value and prints as "0".
func Stock(v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return printer.Sprint(number.Decimal(v))
}
