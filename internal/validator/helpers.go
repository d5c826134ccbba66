package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	RgxEmail   = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\\.[a-zA-Z]{2,}$")
	RgxPhone   = regexp.MustCompile(`^\d{10}$`)
	RgxPincode = regexp.MustCompile(`^\d{6}$`)
	RgxPAN     = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	RgxAadhaar = regexp.MustCompile(`^\d{12}$`)
	RgxOTP     = regexp.MustCompile(`^\d{6}$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func In[T comparable](value T, safelist ...T) bool {
	for i := range safelist {
		if value == safelist[i] {
			return true
		}
	}
	return false
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}

// IsPhone accepts exactly ten digits, no country code or separators.
func IsPhone(value string) bool {
	return RgxPhone.MatchString(value)
}

func IsPincode(value string) bool {
	return RgxPincode.MatchString(value)
}

func IsPAN(value string) bool {
	return RgxPAN.MatchString(value)
}

func IsAadhaar(value string) bool {
	return RgxAadhaar.MatchString(value)
}

func IsOTP(value string) bool {
	return RgxOTP.MatchString(value)
}

// DigitsOnly strips everything but ASCII digits. Length is left to the
// predicates, so over-long input still fails them.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
