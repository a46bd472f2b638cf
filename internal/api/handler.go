package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/delivery"
	"github.com/reachcraft/messaging/internal/errs"
	"github.com/reachcraft/messaging/internal/metrics"
	"github.com/reachcraft/messaging/internal/provider"
	"github.com/reachcraft/messaging/internal/redis"
	"github.com/reachcraft/messaging/internal/settings"
	"github.com/reachcraft/messaging/internal/template"
	"github.com/reachcraft/messaging/internal/tenant"
	"github.com/reachcraft/messaging/internal/webhookcfg"
)

// Repository defines the storage operations the API layer needs.
type Repository interface {
	CreateDeliveryLog(ctx context.Context, log *db.DeliveryLog) error
	GetDeliveryLog(ctx context.Context, id uuid.UUID) (*db.DeliveryLog, error)
	ListDeliveryLogsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*db.DeliveryLog, error)
	UpdateDeliveryStatus(ctx context.Context, messageID, status string, errorMsg *string) error
	UpsertProviderSettings(ctx context.Context, row *db.ProviderSettingsRow) error
	UpsertCredential(ctx context.Context, cred *db.SMSCredential) error
	GetAgency(ctx context.Context, id uuid.UUID) (*db.Agency, error)
}

// Encrypter seals credential secrets before they hit storage.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

// SendRequest is the incoming body for POST /v1/messages.
type SendRequest struct {
	ClientID      string            `json:"client_id"`
	To            string            `json:"to"`
	TemplateType  string            `json:"template_type"`
	CampaignID    string            `json:"campaign_id,omitempty"`
	ConditionID   string            `json:"condition_id,omitempty"`
	CustomMessage string            `json:"custom_message,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Custom        map[string]string `json:"custom,omitempty"`
}

// SendResponse is returned after an orchestrated send.
type SendResponse struct {
	ID           string             `json:"id"`
	Success      bool               `json:"success"`
	Provider     string             `json:"provider,omitempty"`
	MessageID    string             `json:"message_id,omitempty"`
	FallbackUsed bool               `json:"fallback_used"`
	Source       string             `json:"template_source"`
	Attempts     []delivery.Attempt `json:"attempts"`
	Error        string             `json:"error,omitempty"`
}

// SettingsRequest is the incoming body for PUT /v1/settings.
type SettingsRequest struct {
	PrimaryProvider  string            `json:"primary_provider"`
	EnableFallback   bool              `json:"enable_fallback"`
	FallbackOnError  bool              `json:"fallback_on_error"`
	ProviderEnabled  map[string]bool   `json:"provider_enabled"`
	EndpointOverride map[string]string `json:"endpoint_override,omitempty"`
}

// CredentialRequest is the incoming body for PUT /v1/sms-config/{level}.
type CredentialRequest struct {
	AgencyID    string `json:"agency_id,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
	AccountSID  string `json:"account_sid"`
	AuthToken   string `json:"auth_token"`
	FromNumber  string `json:"from_number"`
	DisplayName string `json:"display_name,omitempty"`
}

// CredentialStatus is the read-only view of the effective credential. The
// auth token never leaves storage in any form.
type CredentialStatus struct {
	Level       string `json:"level"`
	AccountSID  string `json:"account_sid"`
	FromNumber  string `json:"from_number"`
	DisplayName string `json:"display_name,omitempty"`
}

// WebhookConfigureRequest is the incoming body for POST /v1/webhooks/configure.
type WebhookConfigureRequest struct {
	Level    string `json:"level"`
	AgencyID string `json:"agency_id,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// ErrorResponse represents an error in problem+json format
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Handler holds dependencies for API handlers
type Handler struct {
	logger       *zap.Logger
	repo         Repository
	resolver     *template.Resolver
	orchestrator *delivery.Orchestrator
	cache        *settings.Cache
	tenants      *tenant.Service
	provisioner  *webhookcfg.Provisioner
	encrypter    Encrypter
	idempotency  *redis.IdempotencyService // nil if Redis not configured
}

// NewHandler creates a new API handler
func NewHandler(
	logger *zap.Logger,
	repo Repository,
	resolver *template.Resolver,
	orchestrator *delivery.Orchestrator,
	cache *settings.Cache,
	tenants *tenant.Service,
	provisioner *webhookcfg.Provisioner,
	encrypter Encrypter,
	idempotency *redis.IdempotencyService,
) *Handler {
	return &Handler{
		logger:       logger,
		repo:         repo,
		resolver:     resolver,
		orchestrator: orchestrator,
		cache:        cache,
		tenants:      tenants,
		provisioner:  provisioner,
		encrypter:    encrypter,
		idempotency:  idempotency,
	}
}

// SendMessage handles POST /v1/messages: resolve the template, render it,
// and deliver with fallback. Supports idempotency via the Idempotency-Key
// header so client retries never double-send through a carrier.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idempotencyKey := r.Header.Get("Idempotency-Key")

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err.Error())
		return
	}

	if req.ClientID == "" || req.To == "" || req.TemplateType == "" {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", "client_id, to, and template_type are required")
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid client_id", "client_id must be a valid UUID")
		return
	}

	tmplType := template.Type(req.TemplateType)
	if !tmplType.Valid() {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid template_type",
			"template_type must be delivery, optin_request, optin_confirmation, or marketing")
		return
	}

	resolveReq := template.Request{
		Type:          tmplType,
		ClientID:      clientID,
		CustomMessage: req.CustomMessage,
	}
	if req.CampaignID != "" {
		campaignID, err := uuid.Parse(req.CampaignID)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid campaign_id", "campaign_id must be a valid UUID")
			return
		}
		resolveReq.CampaignID = &campaignID
	}
	if req.ConditionID != "" {
		conditionID, err := uuid.Parse(req.ConditionID)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid condition_id", "condition_id must be a valid UUID")
			return
		}
		resolveReq.ConditionID = &conditionID
	}

	// Check idempotency if key provided
	if idempotencyKey != "" && h.idempotency != nil {
		cachedResult, err := h.idempotency.CheckOrReserve(ctx, req.ClientID, idempotencyKey)

		if err != nil {
			if errors.Is(err, redis.ErrDuplicateRequest) {
				writeProblem(w, http.StatusConflict, "duplicate_request",
					"Request is already being processed",
					"Another request with this idempotency key is in progress")
				return
			}
			h.logger.Warn("idempotency check failed, proceeding",
				zap.Error(err),
				zap.String("idempotency_key", idempotencyKey),
			)
		} else if cachedResult != nil {
			metrics.RecordIdempotencyHit()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replayed", "true")
			w.WriteHeader(cachedResult.StatusCode)
			if len(cachedResult.Body) > 0 {
				_, _ = w.Write(cachedResult.Body)
			} else {
				_ = json.NewEncoder(w).Encode(SendResponse{ID: cachedResult.DeliveryID})
			}
			return
		}
	}

	resolution := h.resolver.Resolve(ctx, resolveReq)
	body := template.Render(resolution.Template, template.Variables{
		Fields: req.Fields,
		Custom: req.Custom,
	})

	result := h.orchestrator.Send(ctx, req.To, body)

	logRow := h.appendAuditLog(ctx, &clientID, req.To, body, result)

	status := http.StatusCreated
	switch {
	case result.NotConfigured:
		status = http.StatusUnprocessableEntity
	case !result.Success:
		status = http.StatusBadGateway
	}

	resp := SendResponse{
		Success:      result.Success,
		Provider:     result.Provider,
		MessageID:    result.MessageID,
		FallbackUsed: result.FallbackUsed,
		Source:       resolution.Source,
		Attempts:     result.Attempts,
		Error:        result.Error,
	}
	if logRow != nil {
		resp.ID = logRow.ID.String()
	}

	// Store the full response body so a replayed request looks exactly
	// like the first one did.
	if idempotencyKey != "" && h.idempotency != nil && logRow != nil {
		body, _ := json.Marshal(resp)
		if err := h.idempotency.Store(ctx, req.ClientID, idempotencyKey, &redis.IdempotencyResult{
			DeliveryID: logRow.ID.String(),
			StatusCode: status,
			Body:       body,
		}, redis.IdempotencyTTLExact); err != nil {
			h.logger.Warn("failed to store idempotency result",
				zap.Error(err),
				zap.String("idempotency_key", idempotencyKey),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// appendAuditLog writes the delivery audit row. Audit failure never fails
// the send itself; the outcome already happened at the carrier.
func (h *Handler) appendAuditLog(ctx context.Context, clientID *uuid.UUID, to, body string, result delivery.Result) *db.DeliveryLog {
	attempts, err := json.Marshal(result.Attempts)
	if err != nil {
		attempts = []byte("[]")
	}

	logRow := &db.DeliveryLog{
		ID:           uuid.New(),
		ClientID:     clientID,
		ToNumber:     to,
		Body:         body,
		Provider:     result.Provider,
		Success:      result.Success,
		FallbackUsed: result.FallbackUsed,
		MessageID:    result.MessageID,
		Attempts:     attempts,
		Status:       db.DeliveryStatusQueued,
	}
	if !result.Success {
		logRow.Status = db.DeliveryStatusFailed
		logRow.ErrorMessage = &result.Error
	}

	if err := h.repo.CreateDeliveryLog(ctx, logRow); err != nil {
		h.logger.Error("failed to append delivery audit log",
			zap.Error(err),
			zap.String("to", to),
		)
		return nil
	}

	return logRow
}

// GetDelivery handles GET /v1/messages/{id}
func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid delivery ID", "ID must be a valid UUID")
		return
	}

	logRow, err := h.repo.GetDeliveryLog(ctx, id)
	if err != nil {
		h.writeError(w, err, "Delivery not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(logRow)
}

// ListDeliveries handles GET /v1/messages?client_id=xxx&limit=20&offset=0
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIDStr := r.URL.Query().Get("client_id")
	if clientIDStr == "" {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing client_id", "client_id query parameter is required")
		return
	}

	clientID, err := uuid.Parse(clientIDStr)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid client_id", "client_id must be a valid UUID")
		return
	}

	limit := 20
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	logs, err := h.repo.ListDeliveryLogsByClient(ctx, clientID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list deliveries",
			zap.Error(err),
			zap.String("client_id", clientIDStr),
		)
		writeProblem(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list deliveries", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(logs)
}

// GetSettings handles GET /v1/settings, serving from the cache.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current := h.cache.Get(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SettingsRequest{
		PrimaryProvider:  current.PrimaryProvider,
		EnableFallback:   current.EnableFallback,
		FallbackOnError:  current.FallbackOnError,
		ProviderEnabled:  current.ProviderEnabled,
		EndpointOverride: current.EndpointOverride,
	})
}

// UpdateSettings handles PUT /v1/settings. Admin only. The cache is
// invalidated synchronously before the response, so the next reader sees
// the new policy.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", "")
		return
	}

	decision, err := h.tenants.CheckAuthorization(ctx, userID, db.LevelAdmin, nil)
	if err != nil {
		h.writeError(w, err, "Authorization check failed")
		return
	}
	if !decision.Authorized {
		writeProblem(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Forbidden", decision.Reason)
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err.Error())
		return
	}

	if !knownCarrier(req.PrimaryProvider) {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid primary_provider",
			fmt.Sprintf("primary_provider must be one of the known carriers, got %q", req.PrimaryProvider))
		return
	}

	row := &db.ProviderSettingsRow{
		PrimaryProvider:  req.PrimaryProvider,
		EnableFallback:   req.EnableFallback,
		FallbackOnError:  req.FallbackOnError,
		ProviderEnabled:  req.ProviderEnabled,
		EndpointOverride: req.EndpointOverride,
	}

	if err := h.repo.UpsertProviderSettings(ctx, row); err != nil {
		writeProblem(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update settings", "")
		return
	}

	// Read-after-write consistency for the next caller.
	h.cache.Invalidate()

	h.logger.Info("provider settings updated",
		zap.String("user_id", userID.String()),
		zap.String("primary_provider", req.PrimaryProvider),
	)

	w.WriteHeader(http.StatusNoContent)
}

// GetSMSConfig handles GET /v1/sms-config/{level}: view-authorized status
// of the effective credential for a tenant.
func (h *Handler) GetSMSConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", "")
		return
	}

	level := chi.URLParam(r, "level")
	entityID, err := entityIDFromQuery(r, level)
	if err != nil {
		h.writeError(w, err, "Invalid tenant reference")
		return
	}

	decision, err := h.tenants.CheckViewAuthorization(ctx, userID, level, entityID)
	if err != nil {
		h.writeError(w, err, "Authorization check failed")
		return
	}
	if !decision.Authorized {
		writeProblem(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Forbidden", decision.Reason)
		return
	}

	cred, err := h.tenants.ResolveCredential(ctx, level, entityID)
	if err != nil {
		h.writeError(w, err, "No credential configured")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(CredentialStatus{
		Level:       cred.Level,
		AccountSID:  cred.AccountSID,
		FromNumber:  cred.FromNumber,
		DisplayName: cred.DisplayName,
	})
}

// UpdateSMSConfig handles PUT /v1/sms-config/{level}: modify-authorized
// credential upsert. The auth token is encrypted before storage.
func (h *Handler) UpdateSMSConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", "")
		return
	}

	level := chi.URLParam(r, "level")

	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err.Error())
		return
	}

	if req.AccountSID == "" || req.AuthToken == "" || req.FromNumber == "" {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", "account_sid, auth_token, and from_number are required")
		return
	}

	entityID, err := entityIDFromBody(level, req.AgencyID, req.ClientID)
	if err != nil {
		h.writeError(w, err, "Invalid tenant reference")
		return
	}

	decision, err := h.tenants.CheckAuthorization(ctx, userID, level, entityID)
	if err != nil {
		h.writeError(w, err, "Authorization check failed")
		return
	}
	if !decision.Authorized {
		writeProblem(w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", "Forbidden", decision.Reason)
		return
	}

	// An admin passes authorization for any agency ID, so confirm the
	// agency exists before a credential row is written against it.
	if level == db.LevelAgency {
		if _, err := h.repo.GetAgency(ctx, *entityID); err != nil {
			h.writeError(w, err, "Unknown agency")
			return
		}
	}

	sealed, err := h.encrypter.Encrypt(req.AuthToken)
	if err != nil {
		h.logger.Error("failed to encrypt credential secret", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to protect credential", "")
		return
	}

	cred := &db.SMSCredential{
		Level:              level,
		AccountSID:         req.AccountSID,
		AuthTokenEncrypted: sealed,
		FromNumber:         req.FromNumber,
		DisplayName:        req.DisplayName,
	}
	switch level {
	case db.LevelAgency:
		cred.AgencyID = entityID
	case db.LevelClient:
		cred.ClientID = entityID
	}

	if err := h.repo.UpsertCredential(ctx, cred); err != nil {
		writeProblem(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store credential", "")
		return
	}

	h.logger.Info("sms credential updated",
		zap.String("user_id", userID.String()),
		zap.String("level", level),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ConfigureWebhooks handles POST /v1/webhooks/configure.
func (h *Handler) ConfigureWebhooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserID(ctx)
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing caller identity", "")
		return
	}

	var req WebhookConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON body", err.Error())
		return
	}

	entityID, err := entityIDFromBody(req.Level, req.AgencyID, req.ClientID)
	if err != nil {
		h.writeError(w, err, "Invalid tenant reference")
		return
	}

	outcome, err := h.provisioner.Configure(ctx, userID, req.Level, entityID)
	if err != nil {
		h.writeError(w, err, "Webhook configuration failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(outcome)
}

// InboundSMS handles the carrier's inbound-SMS callback. The engine only
// acknowledges; routing replies is a separate system.
func (h *Handler) InboundSMS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("inbound sms received",
		zap.String("from", r.PostFormValue("From")),
		zap.String("message_sid", r.PostFormValue("MessageSid")),
	)

	w.WriteHeader(http.StatusNoContent)
}

// InboundVoice handles the carrier's inbound-voice callback.
func (h *Handler) InboundVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("inbound voice call received",
		zap.String("from", r.PostFormValue("From")),
		zap.String("call_sid", r.PostFormValue("CallSid")),
	)

	w.WriteHeader(http.StatusNoContent)
}

// DeliveryStatus handles the carrier's status callback, updating the audit
// row keyed by the provider-assigned message ID.
func (h *Handler) DeliveryStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	messageID := r.PostFormValue("MessageSid")
	status := r.PostFormValue("MessageStatus")
	if messageID == "" || status == "" {
		writeProblem(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing callback fields", "MessageSid and MessageStatus are required")
		return
	}

	var errorMsg *string
	if msg := r.PostFormValue("ErrorMessage"); msg != "" {
		errorMsg = &msg
	}

	if err := h.repo.UpdateDeliveryStatus(r.Context(), messageID, status, errorMsg); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Unknown message IDs are expected for sends that predate
			// this deployment; acknowledge so the carrier stops retrying.
			h.logger.Debug("status callback for unknown message",
				zap.String("message_id", messageID),
			)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record status", "")
		return
	}

	h.logger.Info("delivery status updated",
		zap.String("message_id", messageID),
		zap.String("status", status),
	)

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps a classified error to its HTTP status and problem body.
func (h *Handler) writeError(w http.ResponseWriter, err error, title string) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(title, zap.Error(err))
	}
	writeProblem(w, status, errs.Code(err), title, err.Error())
}

func writeProblem(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// entityIDFromQuery reads the tenant reference for a level from query params.
func entityIDFromQuery(r *http.Request, level string) (*uuid.UUID, error) {
	switch level {
	case db.LevelAdmin:
		return nil, nil
	case db.LevelAgency:
		return parseEntityID(r.URL.Query().Get("agency_id"), "agency_id")
	case db.LevelClient:
		return parseEntityID(r.URL.Query().Get("client_id"), "client_id")
	default:
		return nil, fmt.Errorf("%w: unknown level %q", errs.ErrValidation, level)
	}
}

// entityIDFromBody reads the tenant reference for a level from body fields.
func entityIDFromBody(level, agencyID, clientID string) (*uuid.UUID, error) {
	switch level {
	case db.LevelAdmin:
		return nil, nil
	case db.LevelAgency:
		return parseEntityID(agencyID, "agency_id")
	case db.LevelClient:
		return parseEntityID(clientID, "client_id")
	default:
		return nil, fmt.Errorf("%w: unknown level %q", errs.ErrValidation, level)
	}
}

func parseEntityID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: %s is required", errs.ErrValidation, field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a valid UUID", errs.ErrValidation, field)
	}
	return &id, nil
}

func knownCarrier(name string) bool {
	for _, c := range provider.KnownCarriers() {
		if c == name {
			return true
		}
	}
	return false
}
