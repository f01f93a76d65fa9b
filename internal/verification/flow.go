package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/walidkhelifa/consulink/internal/models"
	appErrors "github.com/walidkhelifa/consulink/pkg/errors"
	"github.com/walidkhelifa/consulink/pkg/logger"
	"github.com/walidkhelifa/consulink/pkg/metrics"
)

// DefaultMaxAttempts is the verify attempt ceiling per in-flight code.
const DefaultMaxAttempts = 3

// FlowOption customises the verification flow.
type FlowOption func(*Flow)

// WithMaxAttempts overrides the attempt ceiling.
func WithMaxAttempts(max int) FlowOption {
	return func(f *Flow) {
		if max > 0 {
			f.maxAttempts = max
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) FlowOption {
	return func(f *Flow) {
		if clock != nil {
			f.now = clock
		}
	}
}

// WithSendLimiter wraps Send with a per-identifier dispatch cap.
func WithSendLimiter(limiter *SendLimiter) FlowOption {
	return func(f *Flow) {
		f.limiter = limiter
	}
}

// Flow drives the verification state machine for one (identifier, channel)
// pair: NONE -> PENDING -> {CONSUMED | EXPIRED | LOCKED}. Send is always
// allowed and replaces any in-flight state; Verify enforces expiry, the
// attempt ceiling and single use.
type Flow struct {
	store       *Store
	channels    map[Kind]Channel
	limiter     *SendLimiter
	maxAttempts int
	now         func() time.Time
	log         *zap.Logger
}

// NewFlow wires the state machine over its store and delivery channels.
func NewFlow(store *Store, channels []Channel, opts ...FlowOption) (*Flow, error) {
	if store == nil {
		return nil, errors.New("verification flow: store is required")
	}
	if len(channels) == 0 {
		return nil, errors.New("verification flow: at least one channel is required")
	}

	byKind := make(map[Kind]Channel, len(channels))
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if _, dup := byKind[ch.Kind()]; dup {
			return nil, fmt.Errorf("verification flow: duplicate channel for kind %q", ch.Kind())
		}
		byKind[ch.Kind()] = ch
	}

	flow := &Flow{
		store:       store,
		channels:    byKind,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		log:         logger.WithModule("verification"),
	}

	for _, opt := range opts {
		opt(flow)
	}

	return flow, nil
}

// SendInput describes one code dispatch.
type SendInput struct {
	Identifier string
	Kind       Kind
	TTL        time.Duration
	Payload    Payload
}

// SendReceipt reports a successful dispatch back to the caller. It is a plain
// value returned normally; dispatch success is never signalled through an
// error.
type SendReceipt struct {
	Identifier string    `json:"identifier"`
	Channel    Kind      `json:"channel"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Send dispatches a code and upserts the verification record. A resend
// replaces the in-flight record entirely: attempts back to zero, verified
// cleared, expiry extended. The superseded code becomes useless at that point.
func (f *Flow) Send(ctx context.Context, in SendInput) (*SendReceipt, error) {
	channel, ok := f.channels[in.Kind]
	if !ok {
		return nil, fmt.Errorf("verification flow: no channel registered for kind %q", in.Kind)
	}
	if in.TTL <= 0 {
		return nil, errors.New("verification flow: ttl must be positive")
	}

	if f.limiter != nil {
		allowed, err := f.limiter.Allow(ctx, in.Identifier, in.Kind)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, appErrors.ErrRateLimit
		}
	}

	sessionRef, err := channel.Send(ctx, in.Identifier)
	if err != nil {
		metrics.VerificationSends.WithLabelValues(string(in.Kind), "failed").Inc()
		f.log.Warn("code dispatch failed",
			zap.String("channel", string(in.Kind)),
			zap.Error(err),
		)
		return nil, appErrors.ErrSendFailed.WithInternal(err)
	}

	payload := in.Payload
	if sessionRef != "" {
		payload.SessionRef = sessionRef
	}

	encoded, err := payload.Encode()
	if err != nil {
		return nil, err
	}

	expiresAt := f.now().Add(in.TTL)
	record := &models.VerificationCode{
		Identifier: in.Identifier,
		Channel:    string(in.Kind),
		Payload:    encoded,
		ExpiresAt:  expiresAt,
		Attempts:   0,
		Verified:   false,
	}

	if err := f.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	metrics.VerificationSends.WithLabelValues(string(in.Kind), "sent").Inc()

	return &SendReceipt{
		Identifier: in.Identifier,
		Channel:    in.Kind,
		ExpiresAt:  expiresAt,
	}, nil
}

// VerifyInput describes one code check.
type VerifyInput struct {
	Identifier string
	Kind       Kind
	Code       string
}

// Verify checks a submitted code against the in-flight record. On success the
// record is consumed (deleted) and its payload returned; the checks run in a
// fixed order so a locked or expired record never costs a provider call.
func (f *Flow) Verify(ctx context.Context, in VerifyInput) (*Payload, error) {
	channel, ok := f.channels[in.Kind]
	if !ok {
		return nil, fmt.Errorf("verification flow: no channel registered for kind %q", in.Kind)
	}

	record, err := f.store.Find(ctx, in.Identifier, in.Kind)
	if errors.Is(err, ErrRecordNotFound) {
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "no_code_pending").Inc()
		return nil, appErrors.ErrNoCodePending
	}
	if err != nil {
		return nil, err
	}

	if record.Verified {
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "already_used").Inc()
		return nil, appErrors.ErrCodeAlreadyUsed
	}

	if f.now().After(record.ExpiresAt) {
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "expired").Inc()
		return nil, appErrors.ErrCodeExpired
	}

	if record.Attempts >= f.maxAttempts {
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "locked").Inc()
		return nil, appErrors.ErrTooManyAttempts
	}

	verified, err := channel.Verify(ctx, in.Identifier, in.Code)
	if err != nil {
		f.log.Warn("provider check failed",
			zap.String("channel", string(in.Kind)),
			zap.Error(err),
		)
		return nil, appErrors.ErrSendFailed.WithInternal(err)
	}

	if !verified {
		bumped, incErr := f.store.IncrementAttempts(ctx, record.ID, f.maxAttempts)
		if incErr != nil {
			return nil, incErr
		}
		if !bumped {
			// A concurrent attempt reached the ceiling first.
			metrics.VerificationChecks.WithLabelValues(string(in.Kind), "locked").Inc()
			return nil, appErrors.ErrTooManyAttempts
		}
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "invalid_code").Inc()
		return nil, appErrors.ErrInvalidCode
	}

	consumed, err := f.store.Consume(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent verify already consumed this record.
		metrics.VerificationChecks.WithLabelValues(string(in.Kind), "already_used").Inc()
		return nil, appErrors.ErrCodeAlreadyUsed
	}

	payload, err := DecodePayload(record.Payload)
	if err != nil {
		return nil, err
	}

	metrics.VerificationChecks.WithLabelValues(string(in.Kind), "consumed").Inc()
	return &payload, nil
}
