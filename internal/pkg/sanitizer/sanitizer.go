package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried in order when a phone number has no country prefix.
var DefaultRegions = []string{"MY", "US"}

// Printable trims s and drops null bytes and every character outside
// printable ASCII (0x20-0x7E). changed reports whether anything besides
// surrounding whitespace was removed.
func Printable(s string) (cleaned string, changed bool) {
	trimmed := strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(trimmed))
	for i := 0; i < len(trimmed); i++ {
		ch := trimmed[i]
		if ch >= 0x20 && ch <= 0x7E {
			b.WriteByte(ch)
		}
	}

	cleaned = b.String()
	return cleaned, cleaned != trimmed
}

// NormalizeEmail applies Printable and lower-cases the result.
func NormalizeEmail(email string) string {
	cleaned, _ := Printable(email)
	return strings.ToLower(cleaned)
}

// NormalizePhone returns phone in E.164 form, or "" when it cannot be
// parsed for any of the regions.
func NormalizePhone(phone string, regions ...string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}

	for _, region := range regions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}
