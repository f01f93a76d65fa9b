package database

import (
	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Country{},
		&models.VerificationCode{},
		&models.EmailCode{},
		&models.CacheEntry{},
	)
}

// SeedData populates the countries the portal serves. Existing rows are left
// untouched so operators can toggle availability without reseeding.
func SeedData(db *gorm.DB) error {
	countries := []models.Country{
		{Code: "DZ", Name: "Algeria", DialCode: "+213", Active: true},
		{Code: "MA", Name: "Morocco", DialCode: "+212", Active: true},
		{Code: "TN", Name: "Tunisia", DialCode: "+216", Active: true},
		{Code: "FR", Name: "France", DialCode: "+33", Active: true},
		{Code: "BE", Name: "Belgium", DialCode: "+32", Active: true},
		{Code: "ES", Name: "Spain", DialCode: "+34", Active: true},
		{Code: "IT", Name: "Italy", DialCode: "+39", Active: true},
		{Code: "DE", Name: "Germany", DialCode: "+49", Active: true},
		{Code: "GB", Name: "United Kingdom", DialCode: "+44", Active: true},
		{Code: "CA", Name: "Canada", DialCode: "+1", Active: true},
		{Code: "US", Name: "United States", DialCode: "+1", Active: true},
	}

	for _, country := range countries {
		if err := db.Where(models.Country{Code: country.Code}).
			Attrs(country).
			FirstOrCreate(&models.Country{}).Error; err != nil {
			return err
		}
	}

	return nil
}
