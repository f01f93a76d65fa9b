package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
)

func openCleanupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.VerificationCode{},
		&models.EmailCode{},
		&models.CacheEntry{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestCleanupExpired(t *testing.T) {
	db := openCleanupTestDB(t)
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	records := []models.VerificationCode{
		{Identifier: "expired@example.org", Channel: "email", Payload: []byte(`{"kind":"email_pending"}`), ExpiresAt: now.Add(-time.Hour)},
		{Identifier: "live@example.org", Channel: "email", Payload: []byte(`{"kind":"email_pending"}`), ExpiresAt: now.Add(time.Hour)},
	}
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}

	codes := []models.EmailCode{
		{Identifier: "expired@example.org", CodeHash: "aa", ExpiresAt: now.Add(-time.Minute)},
		{Identifier: "live@example.org", CodeHash: "bb", ExpiresAt: now.Add(time.Minute)},
	}
	for i := range codes {
		require.NoError(t, db.Create(&codes[i]).Error)
	}

	entries := []models.CacheEntry{
		{Key: "stale", Value: []byte("1"), ExpiresAt: now.Add(-time.Minute)},
		{Key: "live", Value: []byte("1"), ExpiresAt: now.Add(time.Minute)},
		{Key: "pinned", Value: []byte("1")},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	stats, err := CleanupExpired(context.Background(), db, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.VerificationCodes)
	require.Equal(t, int64(1), stats.EmailCodes)
	require.Equal(t, int64(1), stats.CacheEntries)
	require.Equal(t, int64(3), stats.Total())

	assertRemaining := func(model any, expected int64) {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Equal(t, expected, count)
	}

	assertRemaining(&models.VerificationCode{}, 1)
	assertRemaining(&models.EmailCode{}, 1)
	// The zero-expiry entry is never swept.
	assertRemaining(&models.CacheEntry{}, 2)
}

func TestCleanerRunOnce(t *testing.T) {
	db := openCleanupTestDB(t)
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.EmailCode{
		Identifier: "expired@example.org",
		CodeHash:   "aa",
		ExpiresAt:  now.Add(-time.Minute),
	}).Error)

	cleaner := NewCleaner(db, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.EmailCode{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCleanerStartStop(t *testing.T) {
	db := openCleanupTestDB(t)

	cleaner := NewCleaner(db, WithSchedule("@every 1h"))
	require.NoError(t, cleaner.Start())

	done := cleaner.Stop()
	select {
	case <-done.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestCleanupExpiredRequiresDB(t *testing.T) {
	_, err := CleanupExpired(context.Background(), nil, time.Now())
	require.Error(t, err)
}
