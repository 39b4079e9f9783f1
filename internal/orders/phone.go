package orders

import "strings"

const countryCode = "94"

// NormalizePhone keeps only digits and rewrites a 10-digit local number with a
// leading zero into its country-code form, so "071 480 7030" and "+94714807030"
// compare equal.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 && digits[0] == '0' {
		return countryCode + digits[1:]
	}
	return digits
}
