// Package money formats and parses Brazilian real amounts ("R$ 1.234,56").
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// thousandsOnly matches "1.234" and "1.234.567": dots used as grouping with no decimal part.
var thousandsOnly = regexp.MustCompile(`^[1-9]\d{0,2}(\.\d{3})+$`)

// Format renders d as "R$ 1.234,56". Negative values get a leading minus sign.
func Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	_, frac, _ := strings.Cut(d.StringFixed(2), ".")

	// Integer part goes through the pt-BR printer for the "." grouping; the cents are kept
	// from the decimal so no float rounding is involved.
	return sign + "R$ " + printer.Sprintf("%d", d.Round(2).IntPart()) + "," + frac
}

// Parse reads an amount typed by an operator. "1.234,56", "1.234" and "1234.56" are
// accepted, with or without the "R$" prefix. A dot followed by exactly three digits and no
// comma is a thousands separator, so "1.234" is 1234 while "12.50" stays 12.50.
func Parse(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case thousandsOnly.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return d, nil
}
