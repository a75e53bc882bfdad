package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	nonNumericRe    = regexp.MustCompile(`[^\d.-]`)
	numericPrefixRe = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// Price is a unit price. Display strings such as "₹39" keep their original
// text for round-trips; the numeric amount is derived from it.
type Price struct {
	amount decimal.Decimal
	label  string
}

// NewPrice builds a numeric price.
func NewPrice(amount decimal.Decimal) Price {
	return Price{amount: amount}
}

// PriceFromFloat builds a numeric price from a float.
func PriceFromFloat(v float64) Price {
	return Price{amount: decimal.NewFromFloat(v)}
}

// ParsePrice keeps label as the display value and coerces its amount.
func ParsePrice(label string) Price {
	return Price{amount: coerceAmount(label), label: label}
}

// coerceAmount drops everything but digits, dots and minus signs and reads the
// leading number. Anything unreadable is zero.
func coerceAmount(label string) decimal.Decimal {
	cleaned := nonNumericRe.ReplaceAllString(label, "")
	match := numericPrefixRe.FindString(cleaned)
	if match == "" {
		return decimal.Zero
	}
	neg := strings.HasPrefix(match, "-")
	match = strings.TrimPrefix(match, "-")
	match = strings.TrimSuffix(match, ".")
	if strings.HasPrefix(match, ".") {
		match = "0" + match
	}
	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		return amount.Neg()
	}
	return amount
}

// Amount is the numeric value used for totals.
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// Label is the original display text, empty for numeric prices.
func (p Price) Label() string {
	return p.label
}

func (p Price) String() string {
	if p.label != "" {
		return p.label
	}
	return p.amount.String()
}

// MarshalJSON writes the original representation back out.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.label != "" {
		return json.Marshal(p.label)
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts a number, a display string or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*p = Price{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParsePrice(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a number or string: %w", err)
	}
	amount, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("price %q: %w", n.String(), err)
	}
	*p = Price{amount: amount}
	return nil
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
