package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/walidkhelifa/consulink/internal/models"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	tables := []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Country{},
		&models.VerificationCode{},
		&models.EmailCode{},
		&models.CacheEntry{},
	}

	for _, table := range tables {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestSeedDataIsIdempotentAndPreservesEdits(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.Country{}).Count(&count).Error)
	require.Greater(t, count, int64(0))

	// Operator deactivates a destination; reseeding must not flip it back.
	require.NoError(t, db.Model(&models.Country{}).
		Where("code = ?", "DZ").Update("active", false).Error)

	require.NoError(t, SeedData(db))

	var dz models.Country
	require.NoError(t, db.Take(&dz, "code = ?", "DZ").Error)
	require.False(t, dz.Active)

	var after int64
	require.NoError(t, db.Model(&models.Country{}).Count(&after).Error)
	require.Equal(t, count, after)
}
