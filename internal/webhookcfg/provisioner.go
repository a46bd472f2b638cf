// Package webhookcfg points a tenant's carrier phone number at this
// system's inbound and status callback endpoints.
package webhookcfg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/errs"
	"github.com/reachcraft/messaging/internal/metrics"
	"github.com/reachcraft/messaging/internal/provider"
	"github.com/reachcraft/messaging/internal/tenant"
)

// Fixed carrier-facing callback paths, rooted at the public base URL.
const (
	InboundSMSPath   = "/webhooks/sms/inbound"
	InboundVoicePath = "/webhooks/voice/inbound"
	SMSStatusPath    = "/webhooks/sms/status"
)

// NumberConfigurer is the slice of the carrier API the provisioner needs.
// The Twilio client satisfies it; tests substitute fakes.
type NumberConfigurer interface {
	LookupNumberSID(ctx context.Context, phoneE164 string) (string, error)
	UpdateNumberWebhooks(ctx context.Context, numberSID string, urls provider.WebhookURLs) error
}

// ClientFactory builds a carrier client from a tenant's decrypted
// credentials.
type ClientFactory func(cfg provider.TwilioConfig) NumberConfigurer

// Decrypter opens stored credential secrets.
type Decrypter interface {
	Decrypt(encoded string) (string, error)
}

// Outcome reports what was provisioned.
type Outcome struct {
	Level      string               `json:"level"`
	NumberSID  string               `json:"number_sid"`
	FromNumber string               `json:"from_number"`
	URLs       provider.WebhookURLs `json:"urls"`
}

// Provisioner runs the one-shot webhook configuration sequence.
type Provisioner struct {
	tenants   *tenant.Service
	decrypter Decrypter
	factory   ClientFactory
	baseURL   string
	logger    *zap.Logger
}

// NewProvisioner wires the provisioner's collaborators. baseURL is this
// system's public root; trailing slashes are dropped.
func NewProvisioner(tenants *tenant.Service, decrypter Decrypter, factory ClientFactory, baseURL string, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		tenants:   tenants,
		decrypter: decrypter,
		factory:   factory,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// CallbackURLs returns the fixed callback targets under a base URL.
func CallbackURLs(baseURL string) provider.WebhookURLs {
	base := strings.TrimRight(baseURL, "/")
	return provider.WebhookURLs{
		SMSURL:    base + InboundSMSPath,
		VoiceURL:  base + InboundVoicePath,
		StatusURL: base + SMSStatusPath,
	}
}

// Configure authorizes the caller, resolves the effective credential,
// decrypts its secret, and points the credential's from-number at our
// callback endpoints. Decryption failure and carrier lookup failure are
// distinct error kinds: the former means corrupted stored configuration,
// the latter a remote or number-state problem.
func (p *Provisioner) Configure(ctx context.Context, userID uuid.UUID, level string, entityID *uuid.UUID) (*Outcome, error) {
	decision, err := p.tenants.CheckAuthorization(ctx, userID, level, entityID)
	if err != nil {
		return nil, err
	}
	if !decision.Authorized {
		metrics.RecordWebhookProvisioning("forbidden")
		return nil, fmt.Errorf("%w: %s", errs.ErrForbidden, decision.Reason)
	}

	cred, err := p.tenants.ResolveCredential(ctx, level, entityID)
	if err != nil {
		metrics.RecordWebhookProvisioning("not_configured")
		return nil, err
	}

	authToken, err := p.decrypter.Decrypt(cred.AuthTokenEncrypted)
	if err != nil {
		metrics.RecordWebhookProvisioning("decrypt_failed")
		p.logger.Error("credential secret decryption failed",
			zap.Error(err),
			zap.String("level", cred.Level),
			zap.String("account_sid", cred.AccountSID),
		)
		return nil, err
	}

	client := p.factory(provider.TwilioConfig{
		AccountSID: cred.AccountSID,
		AuthToken:  authToken,
		FromNumber: cred.FromNumber,
	})

	number := provider.NormalizeE164(cred.FromNumber)
	numberSID, err := client.LookupNumberSID(ctx, number)
	if err != nil {
		metrics.RecordWebhookProvisioning("lookup_failed")
		return nil, fmt.Errorf("%w: %v", errs.ErrWebhookConfig, err)
	}

	urls := CallbackURLs(p.baseURL)
	if err := client.UpdateNumberWebhooks(ctx, numberSID, urls); err != nil {
		metrics.RecordWebhookProvisioning("update_failed")
		return nil, fmt.Errorf("%w: %v", errs.ErrWebhookConfig, err)
	}

	metrics.RecordWebhookProvisioning("success")
	p.logger.Info("carrier webhooks configured",
		zap.String("level", cred.Level),
		zap.String("number", number),
		zap.String("number_sid", numberSID),
	)

	return &Outcome{
		Level:      cred.Level,
		NumberSID:  numberSID,
		FromNumber: number,
		URLs:       urls,
	}, nil
}
