package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/pkg/crypto"
	"github.com/walidkhelifa/consulink/pkg/mail"
)

const (
	defaultEmailCodeDigits = 6
	defaultEmailCodeTTL    = 15 * time.Minute
)

// EmailOption customises the email channel.
type EmailOption func(*emailChannel)

// WithEmailCodeDigits overrides the generated code length.
func WithEmailCodeDigits(digits int) EmailOption {
	return func(c *emailChannel) {
		if digits > 0 {
			c.digits = digits
		}
	}
}

// WithEmailCodeTTL overrides how long a generated code stays valid. It should
// be at least as long as the longest verification record TTL so the channel
// never rejects a code the record still considers live.
func WithEmailCodeTTL(ttl time.Duration) EmailOption {
	return func(c *emailChannel) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithEmailClock injects a custom time source.
func WithEmailClock(clock func() time.Time) EmailOption {
	return func(c *emailChannel) {
		if clock != nil {
			c.now = clock
		}
	}
}

// emailChannel generates its own numeric codes, keeps only their hashes in a
// private table, and delivers the plaintext through the configured mailer.
type emailChannel struct {
	db     *gorm.DB
	mailer mail.Mailer
	digits int
	ttl    time.Duration
	now    func() time.Time
}

// NewEmailChannel constructs the email verification channel.
func NewEmailChannel(db *gorm.DB, mailer mail.Mailer, opts ...EmailOption) (Channel, error) {
	if db == nil {
		return nil, errors.New("email channel: db is required")
	}

	channel := &emailChannel{
		db:     db,
		mailer: mailer,
		digits: defaultEmailCodeDigits,
		ttl:    defaultEmailCodeTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(channel)
	}

	return channel, nil
}

func (c *emailChannel) Kind() Kind { return KindEmail }

func (c *emailChannel) Send(ctx context.Context, identifier string) (string, error) {
	code, err := crypto.GenerateNumericCode(c.digits)
	if err != nil {
		return "", fmt.Errorf("email channel: generate code: %w", err)
	}

	record := models.EmailCode{
		Identifier: identifier,
		CodeHash:   crypto.HashCode(code),
		ExpiresAt:  c.now().Add(c.ttl),
	}

	if err := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return "", fmt.Errorf("email channel: store code: %w", err)
	}

	if c.mailer != nil {
		message := mail.Message{
			To:      []string{identifier},
			Subject: "Your Consulink verification code",
			Body:    c.messageBody(code),
		}
		if sendErr := c.mailer.Send(ctx, message); sendErr != nil && !errors.Is(sendErr, mail.ErrSMTPDisabled) {
			return "", fmt.Errorf("email channel: send email: %w", sendErr)
		}
	}

	// The channel owns the secret; callers get no session reference.
	return "", nil
}

func (c *emailChannel) Verify(ctx context.Context, identifier, code string) (bool, error) {
	var record models.EmailCode
	err := c.db.WithContext(ctx).Take(&record, "identifier = ?", identifier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("email channel: load code: %w", err)
	}

	if c.now().After(record.ExpiresAt) {
		return false, nil
	}

	if !crypto.CodeMatches(record.CodeHash, code) {
		return false, nil
	}

	if err := c.db.WithContext(ctx).Delete(&models.EmailCode{}, "id = ?", record.ID).Error; err != nil {
		return false, fmt.Errorf("email channel: consume code: %w", err)
	}
	return true, nil
}

func (c *emailChannel) messageBody(code string) string {
	minutes := int(c.ttl.Minutes())
	return fmt.Sprintf(
		"Hello,\n\nYour Consulink verification code is %s.\nIt expires in %d minutes.\n\nIf you did not request this code, you can ignore this message.\n",
		code, minutes,
	)
}
