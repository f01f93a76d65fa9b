package verification

import (
	"regexp"
	"strings"
)

// Kind identifies the delivery channel for a verification code.
type Kind string

const (
	// KindSMS delivers codes through the SMS verify provider.
	KindSMS Kind = "sms"
	// KindEmail delivers codes through the email channel.
	KindEmail Kind = "email"
)

// Classification is the result of classifying a raw identifier.
type Classification struct {
	Kind       Kind
	Valid      bool
	Identifier string // normalized form, empty when invalid
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]{1,4}[-. ]?[0-9]{9,}$`)
)

// Classify decides whether a raw string is a well-formed email or phone
// identifier. Unparseable input defaults to the SMS kind with Valid=false so
// callers still reject it. Valid identifiers come back normalized: emails
// lowercased, phones reduced to a leading plus and digits.
func Classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)

	if emailPattern.MatchString(trimmed) {
		return Classification{
			Kind:       KindEmail,
			Valid:      true,
			Identifier: strings.ToLower(trimmed),
		}
	}

	if phonePattern.MatchString(trimmed) {
		return Classification{
			Kind:       KindSMS,
			Valid:      true,
			Identifier: normalizePhone(trimmed),
		}
	}

	return Classification{Kind: KindSMS}
}

func normalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
