package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProviderSettingsRow is the single tenant-wide provider selection policy.
// There is at most one row; it is superseded wholesale on every update.
type ProviderSettingsRow struct {
	ID               int             `json:"id"`
	PrimaryProvider  string          `json:"primary_provider"`
	EnableFallback   bool            `json:"enable_fallback"`
	FallbackOnError  bool            `json:"fallback_on_error"`
	ProviderEnabled  map[string]bool `json:"provider_enabled"`
	EndpointOverride map[string]string `json:"endpoint_override"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MessageTemplate is a per-client default template row.
type MessageTemplate struct {
	ID           uuid.UUID `json:"id"`
	ClientID     uuid.UUID `json:"client_id"`
	TemplateType string    `json:"template_type"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CampaignCondition carries the per-condition delivery message override.
type CampaignCondition struct {
	ID              uuid.UUID `json:"id"`
	CampaignID      uuid.UUID `json:"campaign_id"`
	Name            string    `json:"name"`
	DeliveryMessage string    `json:"delivery_message"`
}

// Campaign carries the per-campaign opt-in request override.
type Campaign struct {
	ID                  uuid.UUID `json:"id"`
	ClientID            uuid.UUID `json:"client_id"`
	Name                string    `json:"name"`
	OptinRequestMessage string    `json:"optin_request_message"`
}

// Client is an end-client tenant, optionally owned by an agency.
type Client struct {
	ID       uuid.UUID  `json:"id"`
	AgencyID *uuid.UUID `json:"agency_id,omitempty"`
	Name     string     `json:"name"`
}

// Agency is a reseller tenant.
type Agency struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Credential level constants
const (
	LevelAdmin  = "admin"
	LevelAgency = "agency"
	LevelClient = "client"
)

// Role constants
const (
	RoleAdmin        = "admin"
	RoleCompanyOwner = "company_owner"
	RoleAgencyOwner  = "owner"
)

// SMSCredential is one tier of the carrier account hierarchy. AgencyID is
// set only for agency-level rows, ClientID only for client-level rows; the
// admin singleton has neither.
type SMSCredential struct {
	ID                 uuid.UUID  `json:"id"`
	Level              string     `json:"level"`
	AgencyID           *uuid.UUID `json:"agency_id,omitempty"`
	ClientID           *uuid.UUID `json:"client_id,omitempty"`
	AccountSID         string     `json:"account_sid"`
	AuthTokenEncrypted string     `json:"-"`
	FromNumber         string     `json:"from_number"`
	DisplayName        string     `json:"display_name"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Delivery status constants (provider-reported, via status callbacks)
const (
	DeliveryStatusQueued    = "queued"
	DeliveryStatusSent      = "sent"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
)

// DeliveryLog is the immutable audit row appended per orchestrated send.
// Attempts holds the ordered attempt list as JSON; Status is later updated
// from carrier status callbacks keyed by MessageID.
type DeliveryLog struct {
	ID           uuid.UUID       `json:"id"`
	ClientID     *uuid.UUID      `json:"client_id,omitempty"`
	ToNumber     string          `json:"to_number"`
	Body         string          `json:"body"`
	Provider     string          `json:"provider,omitempty"`
	Success      bool            `json:"success"`
	FallbackUsed bool            `json:"fallback_used"`
	MessageID    string          `json:"message_id,omitempty"`
	Attempts     json.RawMessage `json:"attempts"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
