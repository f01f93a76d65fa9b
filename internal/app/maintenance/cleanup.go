package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/pkg/logger"
)

const defaultCleanupSpec = "@every 10m"

// Cleaner periodically removes expired verification records, email codes and
// cache entries. An expired record carries no secret, but sweeping keeps the
// tables small and the uniqueness indexes fast.
type Cleaner struct {
	db       *gorm.DB
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:       db,
		now:      time.Now,
		schedule: defaultCleanupSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes one sweep. Primarily used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	stats, err := CleanupExpired(ctx, c.db, c.now())
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	if removed := stats.Total(); removed > 0 {
		c.log.Info("expired records removed",
			zap.Int64("verification_codes", stats.VerificationCodes),
			zap.Int64("email_codes", stats.EmailCodes),
			zap.Int64("cache_entries", stats.CacheEntries),
		)
	}

	return errs
}

// CleanupStats captures the number of records removed per table.
type CleanupStats struct {
	VerificationCodes int64
	EmailCodes        int64
	CacheEntries      int64
}

// Total sums removals across all tables.
func (s CleanupStats) Total() int64 {
	return s.VerificationCodes + s.EmailCodes + s.CacheEntries
}

// CleanupExpired removes expired rows across the verification and cache tables.
func CleanupExpired(ctx context.Context, db *gorm.DB, now time.Time) (CleanupStats, error) {
	if db == nil {
		return CleanupStats{}, errors.New("cleanup expired: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := CleanupStats{}

	if result := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.VerificationCode{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup expired: verification codes: %w", result.Error)
	} else {
		stats.VerificationCodes = result.RowsAffected
	}

	if result := db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.EmailCode{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup expired: email codes: %w", result.Error)
	} else {
		stats.EmailCodes = result.RowsAffected
	}

	// Zero-expiry cache rows live until explicitly deleted.
	if result := db.WithContext(ctx).
		Where("expires_at < ? AND expires_at > ?", now, time.Time{}).
		Delete(&models.CacheEntry{}); result.Error != nil {
		return stats, fmt.Errorf("cleanup expired: cache entries: %w", result.Error)
	} else {
		stats.CacheEntries = result.RowsAffected
	}

	return stats, nil
}
