package messaging

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/odyssey-erp/boutique/internal/shared"
)

// CountryCode is the dialling prefix for Côte d'Ivoire.
const CountryCode = "+225"

// ErrInvalidPhone is returned for numbers that are not Ivorian.
var ErrInvalidPhone = fmt.Errorf("messaging: invalid Ivorian phone number: %w", shared.ErrValidation)

var (
	phoneCleaner = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "", ".", "")
	// ten digits since the 2021 renumbering, eight before it
	ivorianPhone = regexp.MustCompile(`^(?:\+?225)?(\d{10}|\d{8})$`)
)

// NormalizePhone returns the number as +225 followed by its national digits.
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneCleaner.Replace(strings.TrimSpace(raw))
	m := ivorianPhone.FindStringSubmatch(cleaned)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return CountryCode + m[1], nil
}
