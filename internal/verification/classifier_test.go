package verification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyEmail(t *testing.T) {
	cls := Classify("  Amina.Khelifi@Example.COM ")
	require.Equal(t, KindEmail, cls.Kind)
	require.True(t, cls.Valid)
	require.Equal(t, "amina.khelifi@example.com", cls.Identifier)
}

func TestClassifyPhone(t *testing.T) {
	cases := map[string]string{
		"+33-612345678":   "+33612345678",
		"+213 551234567":  "+213551234567",
		"+4915112345678":  "+4915112345678",
		"+1.2025550147":   "+12025550147",
	}

	for raw, want := range cases {
		cls := Classify(raw)
		require.Equal(t, KindSMS, cls.Kind, raw)
		require.True(t, cls.Valid, raw)
		require.Equal(t, want, cls.Identifier, raw)
	}
}

func TestClassifyRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{
		"",
		"not-an-identifier",
		"missing@tld",
		"0612345678",    // no leading +
		"+33-61234",     // too few digits
		"user@@host.fr", // double @
	} {
		cls := Classify(raw)
		require.False(t, cls.Valid, raw)
		require.Equal(t, KindSMS, cls.Kind, raw)
		require.Empty(t, cls.Identifier, raw)
	}
}
