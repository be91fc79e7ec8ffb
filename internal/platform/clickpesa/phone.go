package clickpesa

import (
	"fmt"
	"strings"
)

const phoneCountryCode = "255"

// NormalizePhone converts a Tanzanian mobile number to the international form
// the gateway expects: leading country code, digits only, no leading zero.
// Accepted inputs: "0712345678", "+255712345678", "255712345678",
// "712345678", with any spaces/dashes/dots/parentheses in between.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" {
		return "", fmt.Errorf("%w: empty phone number", ErrValidation)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone number %q contains non-digit characters", ErrValidation, raw)
		}
	}

	switch {
	case strings.HasPrefix(cleaned, phoneCountryCode) && len(cleaned) == 12:
		return cleaned, nil
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		return phoneCountryCode + cleaned[1:], nil
	case len(cleaned) == 9 && (cleaned[0] == '6' || cleaned[0] == '7'):
		return phoneCountryCode + cleaned, nil
	default:
		return "", fmt.Errorf("%w: phone number %q is not a valid mobile number", ErrValidation, raw)
	}
}
