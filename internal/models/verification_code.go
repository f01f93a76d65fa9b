package models

import (
	"time"

	"gorm.io/datatypes"
)

// VerificationCode tracks an in-flight OTP verification for one
// (identifier, channel) pair. The row is upserted on every send (attempts and
// verified reset, expiry extended) and deleted when a verify succeeds, so a
// present row always describes the latest code in flight.
//
// The payload column never holds the code itself for either channel: the SMS
// provider keeps its own session, and the email channel stores its code hashed
// in its own table. Payload carries only bookkeeping data such as the provider
// session reference and, during signup, the pending candidate.
type VerificationCode struct {
	BaseModel

	Identifier string         `gorm:"size:320;not null;uniqueIndex:idx_verification_identifier_channel,priority:1" json:"identifier"`
	Channel    string         `gorm:"size:16;not null;uniqueIndex:idx_verification_identifier_channel,priority:2" json:"channel"`
	Payload    datatypes.JSON `gorm:"type:json" json:"-"`
	ExpiresAt  time.Time      `gorm:"index;not null" json:"expires_at"`
	Attempts   int            `gorm:"not null;default:0" json:"attempts"`
	Verified   bool           `gorm:"not null;default:false" json:"verified"`
}
