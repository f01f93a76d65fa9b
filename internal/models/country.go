package models

import "time"

// Country is reference data for the destinations the portal serves. Signup is
// only accepted for active countries.
type Country struct {
	Code     string `gorm:"primaryKey;size:2" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	DialCode string `gorm:"size:8" json:"dial_code"`
	Active   bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
