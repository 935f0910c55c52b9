// Package msisdn turns the phone-number spellings seen in call-center
// exports into one comparable digit string.
package msisdn

import (
	"regexp"
	"strings"
)

// DefaultCountryCode is the North Macedonia country code.
const DefaultCountryCode = "389"

var nonDigit = regexp.MustCompile(`\D`)

func digits(s string) string { return nonDigit.ReplaceAllString(s, "") }

// Canonicalizer maps raw phone-number values to canonical subscriber
// numbers for a single country code.
type Canonicalizer struct {
	CountryCode string
}

func New(countryCode string) Canonicalizer {
	if strings.TrimSpace(countryCode) == "" {
		countryCode = DefaultCountryCode
	}
	return Canonicalizer{CountryCode: digits(countryCode)}
}

// Canonical strips every non-digit rune, then removes exactly one dialing
// prefix: the international dial-out form "00"+CC, else the bare CC, else a
// single domestic trunk "0". The empty string means the value carried no
// usable number and must never be used as a match key.
//
// No length normalization beyond the prefix rules: a number typed with a
// missing or extra digit will not match its real counterpart.
func (c Canonicalizer) Canonical(raw string) string {
	d := digits(raw)
	if d == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(d, "00"+c.CountryCode):
		return d[len(c.CountryCode)+2:]
	case strings.HasPrefix(d, c.CountryCode):
		return d[len(c.CountryCode):]
	case strings.HasPrefix(d, "0"):
		return d[1:]
	}
	return d
}

// Display re-adds the domestic trunk prefix for the report's Phone column.
// Presentation only; comparisons always run on Canonical output.
func (c Canonicalizer) Display(canonical string) string {
	if canonical == "" {
		return ""
	}
	return "0" + canonical
}
