package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/internal/verification"
	appErrors "github.com/walidkhelifa/consulink/pkg/errors"
	"github.com/walidkhelifa/consulink/pkg/validator"
)

// DefaultSignupCodeTTL is how long a signup code stays valid. Signup gets a
// longer window than login because the user is filling a form at the same time.
const DefaultSignupCodeTTL = 15 * time.Minute

// SignupConfig defines tunable behaviour for the signup provider.
type SignupConfig struct {
	CodeTTL time.Duration
	Clock   func() time.Time
}

// SignupProvider registers new users. The registration form is captured at
// send time and parked inside the verification record; no account row exists
// until the code is verified, at which point the account and its profile are
// created in one transaction.
type SignupProvider struct {
	db    *gorm.DB
	flow  *verification.Flow
	ttl   time.Duration
	clock func() time.Time
}

// NewSignupProvider builds a provider with sane defaults.
func NewSignupProvider(db *gorm.DB, flow *verification.Flow, cfg SignupConfig) (*SignupProvider, error) {
	if db == nil {
		return nil, errors.New("signup provider: db is required")
	}
	if flow == nil {
		return nil, errors.New("signup provider: verification flow is required")
	}

	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = DefaultSignupCodeTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SignupProvider{db: db, flow: flow, ttl: ttl, clock: clock}, nil
}

// Metadata describes the provider for catalogue listings.
func (p *SignupProvider) Metadata() Metadata {
	return Metadata{
		Type:        "otp_signup",
		DisplayName: "Verified signup",
		Description: "Create an account by verifying your email or phone",
		Flow:        "otp",
		Order:       2,
	}
}

// Authenticate drives one step of the signup flow.
func (p *SignupProvider) Authenticate(ctx context.Context, creds Credentials) (*Outcome, error) {
	switch creds.Action {
	case ActionSend:
		return p.send(ctx, creds)
	case ActionVerify:
		return p.verify(ctx, creds)
	default:
		return nil, fmt.Errorf("signup provider: unsupported action %q", creds.Action)
	}
}

func (p *SignupProvider) send(ctx context.Context, creds Credentials) (*Outcome, error) {
	if creds.Signup == nil {
		return nil, appErrors.NewBadRequest("signup details are required")
	}
	if err := validator.ValidateStruct(creds.Signup); err != nil {
		return nil, appErrors.NewBadRequest(err.Error())
	}

	candidate, err := normalizeCandidate(creds.Signup)
	if err != nil {
		return nil, err
	}

	class := verification.Classify(creds.Identifier)
	if !class.Valid {
		return nil, appErrors.ErrInvalidIdentifier
	}

	// The chosen identifier must be one of the candidate's own contacts.
	switch class.Kind {
	case verification.KindEmail:
		if class.Identifier != candidate.Email {
			return nil, appErrors.ErrInvalidIdentifier
		}
	case verification.KindSMS:
		if class.Identifier != candidate.Phone {
			return nil, appErrors.ErrInvalidIdentifier
		}
	}

	if err := p.checkAvailability(ctx, candidate); err != nil {
		return nil, err
	}
	if err := p.checkCountry(ctx, candidate.CountryCode); err != nil {
		return nil, err
	}

	receipt, err := p.flow.Send(ctx, verification.SendInput{
		Identifier: class.Identifier,
		Kind:       class.Kind,
		TTL:        p.ttl,
		Payload: verification.Payload{
			Kind:      verification.PayloadSignupPending,
			Candidate: candidate,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{Status: StatusCodeSent, Receipt: receipt}, nil
}

func (p *SignupProvider) verify(ctx context.Context, creds Credentials) (*Outcome, error) {
	class := verification.Classify(creds.Identifier)
	if !class.Valid {
		return nil, appErrors.ErrInvalidIdentifier
	}

	payload, err := p.flow.Verify(ctx, verification.VerifyInput{
		Identifier: class.Identifier,
		Kind:       class.Kind,
		Code:       creds.Code,
	})
	if err != nil {
		return nil, err
	}

	if payload.Kind != verification.PayloadSignupPending || payload.Candidate == nil {
		return nil, appErrors.ErrNoCodePending
	}

	user, err := p.createAccount(ctx, payload.Candidate, class.Kind)
	if err != nil {
		return nil, err
	}

	return &Outcome{Status: StatusAuthenticated, User: user}, nil
}

// createAccount materialises the parked candidate as a user plus profile. The
// uniqueness guarantee lives in the database constraints: two verified signups
// racing over the same contact resolve to exactly one account.
func (p *SignupProvider) createAccount(ctx context.Context, candidate *verification.SignupCandidate, kind verification.Kind) (*models.User, error) {
	now := p.clock()

	user := &models.User{
		Name:        strings.TrimSpace(candidate.FirstName + " " + candidate.LastName),
		Email:       candidate.Email,
		Phone:       candidate.Phone,
		CountryCode: candidate.CountryCode,
		Role:        models.RoleApplicant,
		IsActive:    true,
		LastLoginAt: &now,
	}
	if kind == verification.KindEmail {
		user.EmailVerifiedAt = &now
	} else {
		user.PhoneVerified = true
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &models.Profile{
			UserID:               user.ID,
			FirstName:            candidate.FirstName,
			LastName:             candidate.LastName,
			Email:                candidate.Email,
			Phone:                candidate.Phone,
			ResidenceCountryCode: candidate.CountryCode,
			Category:             models.CategoryIndividual,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			// The code beat a concurrent signup to verification but lost the
			// insert race. Report which contact is taken.
			if kind == verification.KindEmail {
				return nil, appErrors.ErrEmailTaken
			}
			return nil, appErrors.ErrPhoneTaken
		}
		return nil, fmt.Errorf("signup provider: create account: %w", err)
	}

	return user, nil
}

// checkAvailability rejects a signup early when either contact already belongs
// to an account. The database constraints remain the source of truth; this
// check only keeps the common case from wasting a code dispatch.
func (p *SignupProvider) checkAvailability(ctx context.Context, candidate *verification.SignupCandidate) error {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ?", candidate.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("signup provider: check email: %w", err)
	}
	if count > 0 {
		return appErrors.ErrEmailTaken
	}

	if err := p.db.WithContext(ctx).Model(&models.User{}).
		Where("phone = ?", candidate.Phone).Count(&count).Error; err != nil {
		return fmt.Errorf("signup provider: check phone: %w", err)
	}
	if count > 0 {
		return appErrors.ErrPhoneTaken
	}

	return nil
}

func (p *SignupProvider) checkCountry(ctx context.Context, code string) error {
	var country models.Country
	err := p.db.WithContext(ctx).Take(&country, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErrors.ErrInvalidCountry
	}
	if err != nil {
		return fmt.Errorf("signup provider: check country: %w", err)
	}
	if !country.Active {
		return appErrors.ErrInvalidCountry
	}
	return nil
}

// normalizeCandidate canonicalises the form contacts so they compare and store
// consistently with classified identifiers.
func normalizeCandidate(details *SignupDetails) (*verification.SignupCandidate, error) {
	emailClass := verification.Classify(details.Email)
	if !emailClass.Valid || emailClass.Kind != verification.KindEmail {
		return nil, appErrors.NewBadRequest("invalid email address")
	}

	phoneClass := verification.Classify(details.Phone)
	if !phoneClass.Valid || phoneClass.Kind != verification.KindSMS {
		return nil, appErrors.NewBadRequest("invalid phone number")
	}

	return &verification.SignupCandidate{
		FirstName:   strings.TrimSpace(details.FirstName),
		LastName:    strings.TrimSpace(details.LastName),
		Email:       emailClass.Identifier,
		Phone:       phoneClass.Identifier,
		CountryCode: strings.ToUpper(strings.TrimSpace(details.CountryCode)),
	}, nil
}
