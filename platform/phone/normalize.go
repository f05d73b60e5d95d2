// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "MX"
	keyLength     = 10
)

// Normalizer reduces free-text phone numbers to a comparable key.
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a normalizer that strips the calling code of region
// (ISO 3166 alpha-2, e.g. "MX") from 12-digit numbers.
func NewNormalizer(region string) Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = defaultRegion
	}
	code := phonenumbers.GetCountryCodeForRegion(region)
	if code == 0 {
		code = phonenumbers.GetCountryCodeForRegion(defaultRegion)
	}
	return Normalizer{countryCode: strconv.Itoa(code)}
}

var defaultNormalizer = NewNormalizer(defaultRegion)

// Last10 returns the comparable key of raw using the default region.
func Last10(raw string) string {
	return defaultNormalizer.Last10(raw)
}

// Last10 strips every non-digit, drops the country calling code from a
// 12-digit number and returns the trailing 10 digits. Inputs with fewer than
// 10 digits come back as-is and are not comparable.
func (n Normalizer) Last10(raw string) string {
	digits := phonenumbers.NormalizeDigitsOnly(raw)
	if len(digits) == keyLength+2 && strings.HasPrefix(digits, n.countryCode) {
		digits = digits[len(n.countryCode):]
	}
	if len(digits) <= keyLength {
		return digits
	}
	return digits[len(digits)-keyLength:]
}

// Comparable reports whether key is a full 10-digit key. Empty and short keys
// never identify anyone.
func Comparable(key string) bool {
	return len(key) == keyLength
}

// Equal reports whether two raw numbers normalize to the same comparable key.
func (n Normalizer) Equal(a, b string) bool {
	ka := n.Last10(a)
	return Comparable(ka) && ka == n.Last10(b)
}
