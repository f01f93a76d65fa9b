package providers

import (
	"context"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/internal/verification"
)

// Action selects which half of an authentication flow the caller is driving.
type Action string

const (
	// ActionSend requests that a verification code be dispatched.
	ActionSend Action = "send"
	// ActionVerify submits a received code for checking.
	ActionVerify Action = "verify"
)

// Status reports how far an authentication attempt progressed. Both values
// travel back as ordinary outcomes; a dispatched code is a normal result, not
// an error.
type Status string

const (
	// StatusCodeSent means a code was dispatched and the flow now waits on the user.
	StatusCodeSent Status = "code_sent"
	// StatusAuthenticated means the code checked out and the user is signed in.
	StatusAuthenticated Status = "authenticated"
)

// SignupDetails captures the registration form accompanying a signup flow.
type SignupDetails struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=32"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

// Credentials bundles everything a provider needs for one authentication step.
type Credentials struct {
	Action     Action
	Identifier string
	Code       string
	Signup     *SignupDetails
}

// Outcome is the result of an authentication step.
type Outcome struct {
	Status  Status
	User    *models.User
	Receipt *verification.SendReceipt
}

// Metadata describes the static presentation details for an authentication provider.
type Metadata struct {
	Type        string
	DisplayName string
	Description string
	Flow        string
	Order       int
}

// Provider defines the behaviour required for a code-based authentication provider.
type Provider interface {
	Metadata() Metadata
	Authenticate(ctx context.Context, creds Credentials) (*Outcome, error)
}
