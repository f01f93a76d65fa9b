package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/walidkhelifa/consulink/internal/models"
)

// ErrRecordNotFound signals that no verification record exists for the key.
var ErrRecordNotFound = errors.New("verification: record not found")

// Store persists verification records keyed on (identifier, channel). All
// mutation of those records flows through this type; the conditional
// operations exist so concurrent verify calls cannot bypass the attempt
// ceiling or consume the same record twice.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store over the supplied database handle.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("verification store: db is required")
	}
	return &Store{db: db}, nil
}

// Upsert creates or replaces the record for (identifier, channel). A resend
// deliberately resets attempts and verified and extends the expiry, which
// invalidates any code still in flight for the superseded record.
func (s *Store) Upsert(ctx context.Context, rec *models.VerificationCode) error {
	if rec == nil {
		return errors.New("verification store: record is required")
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identifier"}, {Name: "channel"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "expires_at", "attempts", "verified", "updated_at",
			}),
		}).
		Create(rec).Error
}

// Find loads the record for (identifier, channel).
func (s *Store) Find(ctx context.Context, identifier string, kind Kind) (*models.VerificationCode, error) {
	var rec models.VerificationCode
	err := s.db.WithContext(ctx).
		Take(&rec, "identifier = ? AND channel = ?", identifier, string(kind)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification store: find record: %w", err)
	}
	return &rec, nil
}

// IncrementAttempts bumps the attempt counter, but only while it is still
// below the ceiling. The condition is evaluated inside the database, so two
// racing verify calls cannot both slip under the limit. It reports whether
// the increment was applied.
func (s *Store) IncrementAttempts(ctx context.Context, id string, ceiling int) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND attempts < ?", id, ceiling).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		return false, fmt.Errorf("verification store: increment attempts: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Consume deletes the record, enforcing single use. Zero rows affected means
// a concurrent winner already consumed it; the caller must treat that as an
// already-used code rather than a success.
func (s *Store) Consume(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND verified = ?", id, false).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return false, fmt.Errorf("verification store: consume record: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// PurgeExpired removes records whose expiry is before the cutoff. Locked
// records clear naturally once they expire.
func (s *Store) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("verification store: purge expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
