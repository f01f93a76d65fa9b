package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/walidkhelifa/consulink/internal/cache"
)

const (
	defaultSendLimit  = 5
	defaultSendWindow = time.Hour
)

// SendLimiter enforces a fixed-window cap on code dispatches per
// (identifier, channel). It wraps the flow's Send without touching the state
// machine itself; exceeding the cap is reported before any provider call.
type SendLimiter struct {
	store  cache.Store
	max    int
	window time.Duration
}

// NewSendLimiter builds a limiter over the shared cache store.
func NewSendLimiter(store cache.Store, max int, window time.Duration) (*SendLimiter, error) {
	if store == nil {
		return nil, errors.New("send limiter: cache store is required")
	}
	if max <= 0 {
		max = defaultSendLimit
	}
	if window <= 0 {
		window = defaultSendWindow
	}
	return &SendLimiter{store: store, max: max, window: window}, nil
}

// Allow increments the window counter for the key and reports whether this
// send is still within the cap.
func (l *SendLimiter) Allow(ctx context.Context, identifier string, kind Kind) (bool, error) {
	key := fmt.Sprintf("otp_send:%s:%s", kind, identifier)
	count, _, err := l.store.IncrementWithTTL(ctx, key, l.window)
	if err != nil {
		return false, fmt.Errorf("send limiter: increment counter: %w", err)
	}
	return count <= int64(l.max), nil
}
