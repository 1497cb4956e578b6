package common

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Trend is the direction of a signed change value.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// numericOnly strips everything except digits, '.', and '-'.
func numericOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
}

// TrendOf classifies a change value. An explicit leading sign wins; otherwise
// the numeric value decides. Empty or unparseable values are flat.
func TrendOf(val string) Trend {
	s := strings.TrimSpace(val)
	switch {
	case s == "":
		return TrendFlat
	case strings.HasPrefix(s, "+"):
		return TrendUp
	case strings.HasPrefix(s, "-"):
		return TrendDown
	}
	d, err := decimal.NewFromString(numericOnly(s))
	if err != nil {
		return TrendFlat
	}
	switch d.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	}
	return TrendFlat
}

// FormatPrice renders a price with thousands separators and at most three
// decimals. Empty prices render as "-"; unparseable ones are returned as-is.
func FormatPrice(price string) string {
	if price == "" {
		return "-"
	}
	d, err := decimal.NewFromString(numericOnly(price))
	if err != nil {
		return price
	}
	s := d.Round(3).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}

// FormatPercent appends a percent sign when missing. Empty values render as "0%".
func FormatPercent(val string) string {
	s := strings.TrimSpace(val)
	if s == "" {
		return "0%"
	}
	if strings.Contains(s, "%") {
		return s
	}
	return s + "%"
}

// DisplayIndex returns the index value, or "" for absent or zero-equivalent values.
func DisplayIndex(value string) string {
	switch strings.TrimSpace(value) {
	case "", "-", "0":
		return ""
	}
	return value
}

// DisplayChangeAmount returns the signed change amount, or "" when it is zero.
func DisplayChangeAmount(amount string) string {
	switch strings.TrimSpace(amount) {
	case "", "0.00", "+0.00", "-0.00":
		return ""
	}
	return amount
}

// DisplayChangePercent returns the unsigned percent change, or "" when it is zero.
// The direction is carried by the trend instead of the sign.
func DisplayChangePercent(change string) string {
	switch strings.TrimSpace(change) {
	case "", "0%", "0.00%":
		return ""
	}
	return strings.NewReplacer("+", "", "-", "").Replace(FormatPercent(change))
}
