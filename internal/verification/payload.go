package verification

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// PayloadKind tags the shape of the data carried by a verification record.
type PayloadKind string

const (
	// PayloadSMSSession marks a login record holding only the provider session reference.
	PayloadSMSSession PayloadKind = "sms_session"
	// PayloadEmailPending marks a login record for the email channel; the email
	// provider owns the code, so there is nothing else to carry.
	PayloadEmailPending PayloadKind = "email_pending"
	// PayloadSignupPending marks a signup record carrying the pending candidate
	// and, for the SMS channel, the provider session reference.
	PayloadSignupPending PayloadKind = "signup_pending"
)

// SignupCandidate is the transient identity captured at signup send time. It
// lives only inside the verification record payload until verification
// succeeds, at which point it is consumed to create the account and profile.
type SignupCandidate struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code"`
}

// Payload is the tagged union persisted in a verification record.
type Payload struct {
	Kind       PayloadKind      `json:"kind"`
	SessionRef string           `json:"session_ref,omitempty"`
	Candidate  *SignupCandidate `json:"candidate,omitempty"`
}

// Encode serialises the payload for storage.
func (p Payload) Encode() (datatypes.JSON, error) {
	if p.Kind == "" {
		return nil, errors.New("verification: payload kind is required")
	}
	if p.Kind == PayloadSignupPending && p.Candidate == nil {
		return nil, errors.New("verification: signup payload requires a candidate")
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("verification: encode payload: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodePayload parses a stored payload back into its tagged form.
func DecodePayload(raw datatypes.JSON) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, errors.New("verification: empty payload")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("verification: decode payload: %w", err)
	}
	if p.Kind == "" {
		return p, errors.New("verification: payload missing kind tag")
	}
	return p, nil
}
