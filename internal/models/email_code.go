package models

import "time"

// EmailCode is the email channel's private code storage. The channel generates
// the code, stores only its hash here, and deletes the row once consumed. No
// other component reads this table.
type EmailCode struct {
	BaseModel

	Identifier string    `gorm:"size:320;not null;uniqueIndex" json:"identifier"`
	CodeHash   string    `gorm:"size:64;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expires_at"`
}
