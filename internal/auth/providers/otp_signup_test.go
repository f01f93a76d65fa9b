package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walidkhelifa/consulink/internal/models"
	appErrors "github.com/walidkhelifa/consulink/pkg/errors"
)

func newSignupProvider(t *testing.T, h *providerHarness) *SignupProvider {
	t.Helper()
	p, err := NewSignupProvider(h.db, h.flow, SignupConfig{Clock: h.clock()})
	require.NoError(t, err)
	return p
}

func signupForm() *SignupDetails {
	return &SignupDetails{
		FirstName:   "Amina",
		LastName:    "Belkacem",
		Email:       "Amina@Example.org",
		Phone:       "+213 55 123 4567",
		CountryCode: "dz",
	}
}

func TestSignupEmailFlowCreatesAccountAndProfile(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	p := newSignupProvider(t, h)
	ctx := context.Background()

	outcome, err := p.Authenticate(ctx, Credentials{
		Action:     ActionSend,
		Identifier: "amina@example.org",
		Signup:     signupForm(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusCodeSent, outcome.Status)
	require.Equal(t, 1, h.email.sendCalls)

	// No account row exists while the code is in flight.
	var count int64
	require.NoError(t, h.db.Model(&models.User{}).Count(&count).Error)
	require.Zero(t, count)

	outcome, err = p.Authenticate(ctx, Credentials{
		Action: ActionVerify, Identifier: "amina@example.org", Code: "135790",
	})
	require.NoError(t, err)
	require.Equal(t, StatusAuthenticated, outcome.Status)

	user := outcome.User
	require.NotNil(t, user)
	require.Equal(t, "amina@example.org", user.Email)
	require.Equal(t, "+213551234567", user.Phone)
	require.Equal(t, "DZ", user.CountryCode)
	require.Equal(t, models.RoleApplicant, user.Role)
	require.NotNil(t, user.EmailVerifiedAt)
	require.False(t, user.PhoneVerified)

	var profile models.Profile
	require.NoError(t, h.db.Take(&profile, "user_id = ?", user.ID).Error)
	require.Equal(t, "Amina", profile.FirstName)
	require.Equal(t, "DZ", profile.ResidenceCountryCode)
	require.Equal(t, models.CategoryIndividual, profile.Category)
}

func TestSignupPhoneFlowMarksPhoneVerified(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	p := newSignupProvider(t, h)
	ctx := context.Background()

	_, err := p.Authenticate(ctx, Credentials{
		Action:     ActionSend,
		Identifier: "+213551234567",
		Signup:     signupForm(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, h.sms.sendCalls)

	outcome, err := p.Authenticate(ctx, Credentials{
		Action: ActionVerify, Identifier: "+213551234567", Code: "482913",
	})
	require.NoError(t, err)
	require.True(t, outcome.User.PhoneVerified)
	require.Nil(t, outcome.User.EmailVerifiedAt)
}

func TestSignupSendRejectsForeignIdentifier(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	p := newSignupProvider(t, h)

	// Identifier does not belong to the form being registered.
	_, err := p.Authenticate(context.Background(), Credentials{
		Action:     ActionSend,
		Identifier: "other@example.org",
		Signup:     signupForm(),
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidIdentifier)
	require.Zero(t, h.email.sendCalls)
}

func TestSignupSendRejectsTakenContacts(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	h.seedUser(t, "amina@example.org", "+213999999999")
	p := newSignupProvider(t, h)

	_, err := p.Authenticate(context.Background(), Credentials{
		Action:     ActionSend,
		Identifier: "amina@example.org",
		Signup:     signupForm(),
	})
	require.ErrorIs(t, err, appErrors.ErrEmailTaken)

	h2 := newProviderHarness(t)
	h2.seedCountry(t, "DZ", true)
	h2.seedUser(t, "other@example.org", "+213551234567")
	p2 := newSignupProvider(t, h2)

	_, err = p2.Authenticate(context.Background(), Credentials{
		Action:     ActionSend,
		Identifier: "amina@example.org",
		Signup:     signupForm(),
	})
	require.ErrorIs(t, err, appErrors.ErrPhoneTaken)
}

func TestSignupSendRejectsInactiveCountry(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", false)
	p := newSignupProvider(t, h)

	_, err := p.Authenticate(context.Background(), Credentials{
		Action:     ActionSend,
		Identifier: "amina@example.org",
		Signup:     signupForm(),
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidCountry)
}

func TestSignupSendRejectsInvalidForm(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	p := newSignupProvider(t, h)

	form := signupForm()
	form.Email = "not-an-email"

	_, err := p.Authenticate(context.Background(), Credentials{
		Action:     ActionSend,
		Identifier: "+213551234567",
		Signup:     form,
	})
	require.Error(t, err)
	require.Zero(t, h.sms.sendCalls)
}

func TestSignupVerifyLosesInsertRace(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	p := newSignupProvider(t, h)
	ctx := context.Background()

	_, err := p.Authenticate(ctx, Credentials{
		Action:     ActionSend,
		Identifier: "amina@example.org",
		Signup:     signupForm(),
	})
	require.NoError(t, err)

	// Another signup claims the email between send and verify.
	h.seedUser(t, "amina@example.org", "+213888888888")

	_, err = p.Authenticate(ctx, Credentials{
		Action: ActionVerify, Identifier: "amina@example.org", Code: "135790",
	})
	require.ErrorIs(t, err, appErrors.ErrEmailTaken)
}

func TestSignupVerifyRejectsNonSignupPayload(t *testing.T) {
	h := newProviderHarness(t)
	h.seedCountry(t, "DZ", true)
	h.seedUser(t, "amina@example.org", "+213551234567")

	login := newLoginProvider(t, h)
	signup := newSignupProvider(t, h)
	ctx := context.Background()

	// A login code is pending for the identifier; the signup provider must not
	// consume it into an account creation.
	_, err := login.Authenticate(ctx, Credentials{
		Action: ActionSend, Identifier: "amina@example.org",
	})
	require.NoError(t, err)

	_, err = signup.Authenticate(ctx, Credentials{
		Action: ActionVerify, Identifier: "amina@example.org", Code: "135790",
	})
	require.ErrorIs(t, err, appErrors.ErrNoCodePending)
}

func TestRegistryRegistersAndOrders(t *testing.T) {
	h := newProviderHarness(t)
	login := newLoginProvider(t, h)
	signup := newSignupProvider(t, h)

	registry := NewRegistry()
	require.NoError(t, registry.Register(signup))
	require.NoError(t, registry.Register(login))
	require.ErrorIs(t, registry.Register(login), ErrProviderExists)

	meta := registry.Metadata()
	require.Len(t, meta, 2)
	require.Equal(t, "otp_login", meta[0].Type)
	require.Equal(t, "otp_signup", meta[1].Type)

	p, ok := registry.Lookup("OTP_LOGIN")
	require.True(t, ok)
	require.Equal(t, "otp_login", p.Metadata().Type)

	_, ok = registry.Lookup("password")
	require.False(t, ok)
}
