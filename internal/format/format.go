// Package format renders money and dates the way every screen shows them.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DateLayout is the display layout for dates, e.g. "Jan 2, 2006".
const DateLayout = "Jan 2, 2006"

// Currency formats amount as US dollars with grouping, e.g. "$1,234.50" or "-$3.00".
func Currency(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	b.WriteString(groupDigits(whole))
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func groupDigits(whole string) string {
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return whole
	}
	return humanize.Comma(n)
}

// Date formats t for display. The zero time renders as an empty string.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(DateLayout)
}

// Ago renders t relative to now, e.g. "3 days ago".
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Bytes renders a byte count, e.g. "1.2 kB".
func Bytes(n int) string {
	return humanize.Bytes(uint64(max(n, 0)))
}
