package models

import "time"

// Role values assigned to portal accounts.
const (
	RoleApplicant = "applicant"
	RoleStaff     = "staff"
	RoleAdmin     = "admin"
)

// User describes a portal account. Accounts are created exclusively through the
// verified signup flow; both contact identifiers are unique across the platform.
type User struct {
	BaseModel

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Phone string `gorm:"uniqueIndex;not null" json:"phone"`

	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	PhoneVerified   bool       `gorm:"default:false" json:"phone_verified"`

	CountryCode string `gorm:"size:2;not null" json:"country_code"`
	Role        string `gorm:"size:32;default:applicant" json:"role"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
