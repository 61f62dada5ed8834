package schema

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer(
	",", "",
	"₹", "",
	"$", "",
	"€", "",
	"£", "",
	" ", "",
	" ", "",
)

// ParseAmount parses a monetary string into a float64. It strips
// thousands separators and the currency symbols ₹ $ € £, and treats
// parentheses as negation (accounting notation). The second return
// value reports whether the cell parsed at all.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyStripper.Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	f, _ := d.Float64()
	if negative {
		f = -f
	}
	return f, true
}
