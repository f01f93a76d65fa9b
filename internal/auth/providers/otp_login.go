package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/internal/verification"
	appErrors "github.com/walidkhelifa/consulink/pkg/errors"
)

// DefaultLoginCodeTTL is how long a login code stays valid.
const DefaultLoginCodeTTL = 10 * time.Minute

// LoginConfig defines tunable behaviour for the login provider.
type LoginConfig struct {
	CodeTTL time.Duration
	Clock   func() time.Time
}

// LoginProvider signs existing users in with a one-time code sent to the
// contact identifier they supplied. The identifier decides the channel: an
// email goes through the email channel, a phone number through SMS.
type LoginProvider struct {
	db    *gorm.DB
	flow  *verification.Flow
	ttl   time.Duration
	clock func() time.Time
}

// NewLoginProvider builds a provider with sane defaults.
func NewLoginProvider(db *gorm.DB, flow *verification.Flow, cfg LoginConfig) (*LoginProvider, error) {
	if db == nil {
		return nil, errors.New("login provider: db is required")
	}
	if flow == nil {
		return nil, errors.New("login provider: verification flow is required")
	}

	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = DefaultLoginCodeTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LoginProvider{db: db, flow: flow, ttl: ttl, clock: clock}, nil
}

// Metadata describes the provider for catalogue listings.
func (p *LoginProvider) Metadata() Metadata {
	return Metadata{
		Type:        "otp_login",
		DisplayName: "One-time code login",
		Description: "Sign in with a code sent to your email or phone",
		Flow:        "otp",
		Order:       1,
	}
}

// Authenticate drives one step of the login flow.
func (p *LoginProvider) Authenticate(ctx context.Context, creds Credentials) (*Outcome, error) {
	switch creds.Action {
	case ActionSend:
		return p.send(ctx, creds)
	case ActionVerify:
		return p.verify(ctx, creds)
	default:
		return nil, fmt.Errorf("login provider: unsupported action %q", creds.Action)
	}
}

func (p *LoginProvider) send(ctx context.Context, creds Credentials) (*Outcome, error) {
	class := verification.Classify(creds.Identifier)
	if !class.Valid {
		return nil, appErrors.ErrInvalidIdentifier
	}

	// Membership is checked before any code leaves the system, so a login
	// attempt for an unknown identifier never costs a provider call.
	user, err := p.findUser(ctx, class)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, appErrors.ErrForbidden
	}

	payloadKind := verification.PayloadSMSSession
	if class.Kind == verification.KindEmail {
		payloadKind = verification.PayloadEmailPending
	}

	receipt, err := p.flow.Send(ctx, verification.SendInput{
		Identifier: class.Identifier,
		Kind:       class.Kind,
		TTL:        p.ttl,
		Payload:    verification.Payload{Kind: payloadKind},
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{Status: StatusCodeSent, Receipt: receipt}, nil
}

func (p *LoginProvider) verify(ctx context.Context, creds Credentials) (*Outcome, error) {
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
	if payload != nil && payload.Kind == verification.PayloadSignupPending {
		// A signup code cannot sign anyone in, and it is consumed above so it
		// cannot be replayed against the signup endpoint either.
		return nil, appErrors.ErrNoCodePending
	}

	user, err := p.findUser(ctx, class)
	if err != nil {
		return nil, err
	}

	now := p.clock()
	updates := map[string]any{"last_login_at": now}
	if class.Kind == verification.KindEmail {
		if user.EmailVerifiedAt == nil {
			updates["email_verified_at"] = now
			user.EmailVerifiedAt = &now
		}
	} else if !user.PhoneVerified {
		updates["phone_verified"] = true
		user.PhoneVerified = true
	}
	user.LastLoginAt = &now

	if err := p.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("login provider: update user: %w", err)
	}

	return &Outcome{Status: StatusAuthenticated, User: user}, nil
}

func (p *LoginProvider) findUser(ctx context.Context, class verification.Classification) (*models.User, error) {
	var user models.User

	query := p.db.WithContext(ctx)
	if class.Kind == verification.KindEmail {
		query = query.Where("LOWER(email) = ?", class.Identifier)
	} else {
		query = query.Where("phone = ?", class.Identifier)
	}

	err := query.Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("login provider: query user: %w", err)
	}
	return &user, nil
}
