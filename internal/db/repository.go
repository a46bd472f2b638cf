package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/errs"
)

// Repository exposes typed accessors over the messaging tables. Business
// logic never embeds raw queries; everything goes through these methods.
type Repository struct {
	db     *DB
	logger *zap.Logger
}

// NewRepository creates a new messaging repository
func NewRepository(db *DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetProviderSettings loads the single provider-settings row.
// Returns errs.ErrNotFound when no row has been written yet.
func (r *Repository) GetProviderSettings(ctx context.Context) (*ProviderSettingsRow, error) {
	query := `
		SELECT id, primary_provider, enable_fallback, fallback_on_error,
		       provider_enabled, endpoint_override, updated_at
		FROM provider_settings
		ORDER BY id
		LIMIT 1
	`

	var row ProviderSettingsRow
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&row.ID,
		&row.PrimaryProvider,
		&row.EnableFallback,
		&row.FallbackOnError,
		&row.ProviderEnabled,
		&row.EndpointOverride,
		&row.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("provider settings: %w", errs.ErrNotFound)
	}

	if err != nil {
		r.logger.Error("failed to get provider settings", zap.Error(err))
		return nil, fmt.Errorf("query provider settings: %w", err)
	}

	return &row, nil
}

// UpsertProviderSettings replaces the settings row wholesale.
func (r *Repository) UpsertProviderSettings(ctx context.Context, row *ProviderSettingsRow) error {
	query := `
		INSERT INTO provider_settings (
			id, primary_provider, enable_fallback, fallback_on_error,
			provider_enabled, endpoint_override, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			primary_provider = EXCLUDED.primary_provider,
			enable_fallback = EXCLUDED.enable_fallback,
			fallback_on_error = EXCLUDED.fallback_on_error,
			provider_enabled = EXCLUDED.provider_enabled,
			endpoint_override = EXCLUDED.endpoint_override,
			updated_at = now()
	`

	_, err := r.db.Pool().Exec(ctx, query,
		row.PrimaryProvider,
		row.EnableFallback,
		row.FallbackOnError,
		row.ProviderEnabled,
		row.EndpointOverride,
	)
	if err != nil {
		r.logger.Error("failed to upsert provider settings", zap.Error(err))
		return fmt.Errorf("upsert provider settings: %w", err)
	}

	r.logger.Info("provider settings updated",
		zap.String("primary_provider", row.PrimaryProvider),
		zap.Bool("enable_fallback", row.EnableFallback),
	)

	return nil
}

// GetCampaignCondition fetches one campaign condition by ID.
func (r *Repository) GetCampaignCondition(ctx context.Context, id uuid.UUID) (*CampaignCondition, error) {
	query := `
		SELECT id, campaign_id, name, COALESCE(delivery_message, '')
		FROM campaign_conditions
		WHERE id = $1
	`

	var cond CampaignCondition
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&cond.ID,
		&cond.CampaignID,
		&cond.Name,
		&cond.DeliveryMessage,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign condition %s: %w", id, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query campaign condition: %w", err)
	}

	return &cond, nil
}

// GetCampaign fetches one campaign by ID.
func (r *Repository) GetCampaign(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	query := `
		SELECT id, client_id, name, COALESCE(optin_request_message, '')
		FROM campaigns
		WHERE id = $1
	`

	var c Campaign
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.ClientID,
		&c.Name,
		&c.OptinRequestMessage,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", id, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query campaign: %w", err)
	}

	return &c, nil
}

// GetDefaultTemplate fetches the client's default template for a type.
func (r *Repository) GetDefaultTemplate(ctx context.Context, clientID uuid.UUID, templateType, name string) (*MessageTemplate, error) {
	query := `
		SELECT id, client_id, template_type, name, content, is_default,
		       created_at, updated_at
		FROM message_templates
		WHERE client_id = $1 AND template_type = $2 AND name = $3 AND is_default = true
		LIMIT 1
	`

	var tmpl MessageTemplate
	err := r.db.Pool().QueryRow(ctx, query, clientID, templateType, name).Scan(
		&tmpl.ID,
		&tmpl.ClientID,
		&tmpl.TemplateType,
		&tmpl.Name,
		&tmpl.Content,
		&tmpl.IsDefault,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("default template for client %s type %s: %w", clientID, templateType, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query default template: %w", err)
	}

	return &tmpl, nil
}

// GetClient fetches a client row by ID.
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	query := `SELECT id, agency_id, name FROM clients WHERE id = $1`

	var c Client
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&c.ID, &c.AgencyID, &c.Name)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query client: %w", err)
	}

	return &c, nil
}

// GetAgency fetches an agency row by ID.
func (r *Repository) GetAgency(ctx context.Context, id uuid.UUID) (*Agency, error) {
	query := `SELECT id, name FROM agencies WHERE id = $1`

	var a Agency
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&a.ID, &a.Name)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("agency %s: %w", id, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query agency: %w", err)
	}

	return &a, nil
}

// UserHasRole reports whether the user holds a global role (admin,
// company_owner).
func (r *Repository) UserHasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, userID, role).Scan(&exists); err != nil {
		return false, fmt.Errorf("query user role: %w", err)
	}

	return exists, nil
}

// IsAgencyOwner reports whether the user holds the owner role in the agency.
func (r *Repository) IsAgencyOwner(ctx context.Context, userID, agencyID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM agency_memberships
			WHERE user_id = $1 AND agency_id = $2 AND role = $3
		)
	`

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, userID, agencyID, RoleAgencyOwner).Scan(&exists); err != nil {
		return false, fmt.Errorf("query agency membership: %w", err)
	}

	return exists, nil
}

// HasClientAssociation reports whether the user is directly associated with
// the client, regardless of role.
func (r *Repository) HasClientAssociation(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM client_users WHERE user_id = $1 AND client_id = $2)`

	var exists bool
	if err := r.db.Pool().QueryRow(ctx, query, userID, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query client association: %w", err)
	}

	return exists, nil
}

// GetCredential fetches one credential tier. entityID is ignored for the
// admin singleton.
func (r *Repository) GetCredential(ctx context.Context, level string, entityID uuid.UUID) (*SMSCredential, error) {
	var query string
	args := []any{}

	switch level {
	case LevelAdmin:
		query = `
			SELECT id, level, agency_id, client_id, account_sid,
			       auth_token_encrypted, from_number, display_name, updated_at
			FROM sms_credentials WHERE level = 'admin' LIMIT 1
		`
	case LevelAgency:
		query = `
			SELECT id, level, agency_id, client_id, account_sid,
			       auth_token_encrypted, from_number, display_name, updated_at
			FROM sms_credentials WHERE level = 'agency' AND agency_id = $1 LIMIT 1
		`
		args = append(args, entityID)
	case LevelClient:
		query = `
			SELECT id, level, agency_id, client_id, account_sid,
			       auth_token_encrypted, from_number, display_name, updated_at
			FROM sms_credentials WHERE level = 'client' AND client_id = $1 LIMIT 1
		`
		args = append(args, entityID)
	default:
		return nil, fmt.Errorf("unknown credential level %q: %w", level, errs.ErrValidation)
	}

	var cred SMSCredential
	err := r.db.Pool().QueryRow(ctx, query, args...).Scan(
		&cred.ID,
		&cred.Level,
		&cred.AgencyID,
		&cred.ClientID,
		&cred.AccountSID,
		&cred.AuthTokenEncrypted,
		&cred.FromNumber,
		&cred.DisplayName,
		&cred.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s credential: %w", level, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}

	return &cred, nil
}

// UpsertCredential writes one credential tier, replacing any existing row
// for the same level and entity.
func (r *Repository) UpsertCredential(ctx context.Context, cred *SMSCredential) error {
	query := `
		INSERT INTO sms_credentials (
			id, level, agency_id, client_id, account_sid,
			auth_token_encrypted, from_number, display_name, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (level, agency_id, client_id) DO UPDATE SET
			account_sid = EXCLUDED.account_sid,
			auth_token_encrypted = EXCLUDED.auth_token_encrypted,
			from_number = EXCLUDED.from_number,
			display_name = EXCLUDED.display_name,
			updated_at = now()
	`

	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}

	_, err := r.db.Pool().Exec(ctx, query,
		cred.ID,
		cred.Level,
		cred.AgencyID,
		cred.ClientID,
		cred.AccountSID,
		cred.AuthTokenEncrypted,
		cred.FromNumber,
		cred.DisplayName,
	)
	if err != nil {
		r.logger.Error("failed to upsert sms credential",
			zap.Error(err),
			zap.String("level", cred.Level),
		)
		return fmt.Errorf("upsert sms credential: %w", err)
	}

	return nil
}

// CreateDeliveryLog appends one audit row for an orchestrated send.
func (r *Repository) CreateDeliveryLog(ctx context.Context, log *DeliveryLog) error {
	query := `
		INSERT INTO delivery_log (
			id, client_id, to_number, body, provider, success,
			fallback_used, message_id, attempts, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool().QueryRow(
		ctx,
		query,
		log.ID,
		log.ClientID,
		log.ToNumber,
		log.Body,
		log.Provider,
		log.Success,
		log.FallbackUsed,
		log.MessageID,
		log.Attempts,
		log.Status,
		log.ErrorMessage,
	).Scan(&log.CreatedAt, &log.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create delivery log",
			zap.Error(err),
			zap.String("delivery_id", log.ID.String()),
		)
		return fmt.Errorf("insert delivery log: %w", err)
	}

	return nil
}

// GetDeliveryLog fetches one audit row by ID.
func (r *Repository) GetDeliveryLog(ctx context.Context, id uuid.UUID) (*DeliveryLog, error) {
	query := `
		SELECT id, client_id, to_number, body, provider, success,
		       fallback_used, message_id, attempts, status, error_message,
		       created_at, updated_at
		FROM delivery_log
		WHERE id = $1
	`

	var log DeliveryLog
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&log.ID,
		&log.ClientID,
		&log.ToNumber,
		&log.Body,
		&log.Provider,
		&log.Success,
		&log.FallbackUsed,
		&log.MessageID,
		&log.Attempts,
		&log.Status,
		&log.ErrorMessage,
		&log.CreatedAt,
		&log.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("delivery log %s: %w", id, errs.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("query delivery log: %w", err)
	}

	return &log, nil
}

// UpdateDeliveryStatus applies a carrier status callback, keyed by the
// provider-assigned message ID.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, messageID, status string, errorMsg *string) error {
	query := `
		UPDATE delivery_log
		SET status = $1, error_message = COALESCE($2, error_message), updated_at = now()
		WHERE message_id = $3
	`

	result, err := r.db.Pool().Exec(ctx, query, status, errorMsg, messageID)
	if err != nil {
		r.logger.Error("failed to update delivery status",
			zap.Error(err),
			zap.String("message_id", messageID),
		)
		return fmt.Errorf("update delivery status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delivery for message %s: %w", messageID, errs.ErrNotFound)
	}

	return nil
}

// ListDeliveryLogsByClient returns recent audit rows for a client.
func (r *Repository) ListDeliveryLogsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*DeliveryLog, error) {
	query := `
		SELECT id, client_id, to_number, body, provider, success,
		       fallback_used, message_id, attempts, status, error_message,
		       created_at, updated_at
		FROM delivery_log
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool().Query(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list delivery logs: %w", err)
	}
	defer rows.Close()

	var logs []*DeliveryLog
	for rows.Next() {
		var log DeliveryLog
		if err := rows.Scan(
			&log.ID,
			&log.ClientID,
			&log.ToNumber,
			&log.Body,
			&log.Provider,
			&log.Success,
			&log.FallbackUsed,
			&log.MessageID,
			&log.Attempts,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
			&log.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery log: %w", err)
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery logs: %w", err)
	}

	return logs, nil
}
