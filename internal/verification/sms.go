package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	verifyv2 "github.com/twilio/twilio-go/rest/verify/v2"
)

const approvedStatus = "approved"

// SMSConfig carries the credentials for the Twilio Verify service.
type SMSConfig struct {
	AccountSID       string
	AuthToken        string
	VerifyServiceSID string
}

type smsChannel struct {
	client     *twilio.RestClient
	serviceSID string
}

// NewSMSChannel builds the SMS channel backed by Twilio Verify. The provider
// generates, delivers and checks the code itself; the portal only keeps the
// verification session reference it hands back.
func NewSMSChannel(cfg SMSConfig) (Channel, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("sms channel: account sid and auth token are required")
	}
	if strings.TrimSpace(cfg.VerifyServiceSID) == "" {
		return nil, errors.New("sms channel: verify service sid is required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &smsChannel{
		client:     client,
		serviceSID: cfg.VerifyServiceSID,
	}, nil
}

func (c *smsChannel) Kind() Kind { return KindSMS }

func (c *smsChannel) Send(ctx context.Context, identifier string) (string, error) {
	params := &verifyv2.CreateVerificationParams{}
	params.SetTo(identifier)
	params.SetChannel("sms")

	resp, err := c.client.VerifyV2.CreateVerification(c.serviceSID, params)
	if err != nil {
		return "", fmt.Errorf("sms channel: start verification: %w", err)
	}

	if resp.Sid == nil {
		return "", errors.New("sms channel: provider returned no verification sid")
	}
	return *resp.Sid, nil
}

func (c *smsChannel) Verify(ctx context.Context, identifier, code string) (bool, error) {
	params := &verifyv2.CreateVerificationCheckParams{}
	params.SetTo(identifier)
	params.SetCode(code)

	resp, err := c.client.VerifyV2.CreateVerificationCheck(c.serviceSID, params)
	if err != nil {
		return false, fmt.Errorf("sms channel: check verification: %w", err)
	}

	return resp.Status != nil && *resp.Status == approvedStatus, nil
}
