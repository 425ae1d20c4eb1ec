package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidTaxID is returned when a tax identifier is absent or malformed
var ErrInvalidTaxID = errors.New("invalid tax identifier")

// TaxIDDigits is the CNPJ length once punctuation is stripped
const TaxIDDigits = 14

// TaxIDDigitsOnly strips everything but ASCII digits ("12.345.678/0001-90" -> "12345678000190")
func TaxIDDigitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID returns the digit-only identifier when it has the expected length
func ValidateTaxID(raw string) (string, error) {
	digits := TaxIDDigitsOnly(raw)
	if digits == "" {
		return "", fmt.Errorf("%w: missing", ErrInvalidTaxID)
	}
	if len(digits) != TaxIDDigits {
		return "", fmt.Errorf("%w: expected %d digits, got %d", ErrInvalidTaxID, TaxIDDigits, len(digits))
	}
	return digits, nil
}
