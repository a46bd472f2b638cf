package provider

import "strings"

// NormalizeE164 converts a raw destination into E.164 form. Ten-digit
// numbers are assumed US/Canada and gain +1; eleven digits starting with 1
// gain a +; anything already prefixed with + passes through; everything
// else is reduced to digits with a + prefix.
func NormalizeE164(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}

	digits := digitsOnly(trimmed)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+" + digits
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
