package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const textGridDefaultBaseURL = "https://api.textgrid.com"

// TextGridConfig holds the TextGrid API credentials.
type TextGridConfig struct {
	APIKey     string
	FromNumber string
	BaseURL    string // empty means api.textgrid.com
}

// TextGridSender sends SMS through the TextGrid JSON API.
type TextGridSender struct {
	cfg    TextGridConfig
	client *http.Client
	logger *zap.Logger
}

// NewTextGridSender creates a TextGrid-backed sender.
func NewTextGridSender(cfg TextGridConfig, logger *zap.Logger) *TextGridSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = textGridDefaultBaseURL
	}

	return &TextGridSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the carrier name.
func (s *TextGridSender) Name() string { return TextGrid }

type textGridSendRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

type textGridSendResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Send submits one message. All failures land in the result's Error field.
func (s *TextGridSender) Send(ctx context.Context, toE164, body string) SendResult {
	payload, err := json.Marshal(textGridSendRequest{
		To:   toE164,
		From: s.cfg.FromNumber,
		Body: body,
	})
	if err != nil {
		return SendResult{Error: fmt.Sprintf("textgrid: encode request: %v", err)}
	}

	endpoint := s.cfg.BaseURL + "/v2/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SendResult{Error: fmt.Sprintf("textgrid: build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("textgrid: request failed: %v", err)}
	}
	defer resp.Body.Close()

	var parsed textGridSendResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&parsed); err != nil {
		return SendResult{Error: fmt.Sprintf("textgrid: decode response (status %d): %v", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := parsed.Error
		if detail == "" {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return SendResult{Error: fmt.Sprintf("textgrid: %s", detail)}
	}

	s.logger.Info("sms sent via textgrid",
		zap.String("to", toE164),
		zap.String("message_id", parsed.ID),
		zap.String("status", parsed.Status),
	)

	return SendResult{
		Success:   true,
		MessageID: parsed.ID,
		Status:    parsed.Status,
	}
}
