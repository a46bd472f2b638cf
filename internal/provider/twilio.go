package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// TwilioConfig holds one Twilio account's credentials. The delivery path
// builds one sender from the platform account at startup; the webhook
// provisioner builds short-lived clients from tenant credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string // empty means api.twilio.com
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	cfg    TwilioConfig
	client *http.Client
	logger *zap.Logger
}

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(cfg TwilioConfig, logger *zap.Logger) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioDefaultBaseURL
	}

	return &TwilioSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the carrier name.
func (s *TwilioSender) Name() string { return Twilio }

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error detail on non-2xx
	Code    int    `json:"code"`
}

// Send submits one message. Carrier and transport failures are converted
// into the result's Error field, never returned as a Go error.
func (s *TwilioSender) Send(ctx context.Context, toE164, body string) SendResult {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", toE164)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{Error: fmt.Sprintf("twilio: build request: %v", err)}
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("twilio: request failed: %v", err)}
	}
	defer resp.Body.Close()

	var parsed twilioMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&parsed); err != nil {
		return SendResult{Error: fmt.Sprintf("twilio: decode response (status %d): %v", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Message
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return SendResult{Error: fmt.Sprintf("twilio: %s", detail)}
	}

	s.logger.Info("sms sent via twilio",
		zap.String("to", toE164),
		zap.String("message_sid", parsed.SID),
		zap.String("status", parsed.Status),
	)

	return SendResult{
		Success:   true,
		MessageID: parsed.SID,
		Status:    parsed.Status,
	}
}

// WebhookURLs are the callback targets a phone number is pointed at.
type WebhookURLs struct {
	SMSURL    string
	VoiceURL  string
	StatusURL string
}

type twilioNumberList struct {
	IncomingPhoneNumbers []struct {
		SID         string `json:"sid"`
		PhoneNumber string `json:"phone_number"`
	} `json:"incoming_phone_numbers"`
}

// LookupNumberSID resolves the Twilio resource SID for a phone number in
// this account. Returns an error when the number is not owned by the
// account. That is a number-state problem, distinct from bad credentials.
func (s *TwilioSender) LookupNumberSID(ctx context.Context, phoneE164 string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/IncomingPhoneNumbers.json?PhoneNumber=%s",
		s.cfg.BaseURL, s.cfg.AccountSID, url.QueryEscape(phoneE164))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("twilio: build number lookup: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio: number lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio: number lookup returned status %d", resp.StatusCode)
	}

	var list twilioNumberList
	if err := json.NewDecoder(io.LimitReader(resp.Body, 256<<10)).Decode(&list); err != nil {
		return "", fmt.Errorf("twilio: decode number lookup: %w", err)
	}

	for _, n := range list.IncomingPhoneNumbers {
		if n.PhoneNumber == phoneE164 {
			return n.SID, nil
		}
	}

	return "", fmt.Errorf("twilio: number %s not found in account", phoneE164)
}

// UpdateNumberWebhooks points a number's inbound-SMS, inbound-voice, and
// status-callback URLs at the given targets.
func (s *TwilioSender) UpdateNumberWebhooks(ctx context.Context, numberSID string, urls WebhookURLs) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/IncomingPhoneNumbers/%s.json",
		s.cfg.BaseURL, s.cfg.AccountSID, numberSID)

	form := url.Values{}
	form.Set("SmsUrl", urls.SMSURL)
	form.Set("SmsMethod", http.MethodPost)
	form.Set("VoiceUrl", urls.VoiceURL)
	form.Set("VoiceMethod", http.MethodPost)
	form.Set("StatusCallback", urls.StatusURL)
	form.Set("StatusCallbackMethod", http.MethodPost)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("twilio: build number update: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: number update failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("twilio: number update returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	s.logger.Info("twilio number webhooks updated",
		zap.String("number_sid", numberSID),
		zap.String("sms_url", urls.SMSURL),
	)

	return nil
}
