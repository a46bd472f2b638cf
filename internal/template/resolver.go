package template

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/metrics"
)

// Source tags where a resolution came from, for observability.
const (
	SourceCustom    = "custom"
	SourceCondition = "condition"
	SourceClient    = "client"
	SourceSystem    = "system"
)

// defaultTemplateName is the well-known name of a client's default template
// row for a given type.
const defaultTemplateName = "default"

// Request names the tenant scope and overrides for one resolution.
type Request struct {
	Type          Type
	ClientID      uuid.UUID
	CampaignID    *uuid.UUID
	ConditionID   *uuid.UUID
	CustomMessage string
}

// Resolution is the winning template text and its source tier.
type Resolution struct {
	Template string `json:"template"`
	Source   string `json:"source"`
}

// Store is the storage surface the resolver reads overrides from.
type Store interface {
	GetCampaignCondition(ctx context.Context, id uuid.UUID) (*db.CampaignCondition, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*db.Campaign, error)
	GetDefaultTemplate(ctx context.Context, clientID uuid.UUID, templateType, name string) (*db.MessageTemplate, error)
}

// Resolver walks the override chain for a message purpose. Each tier is an
// independent short-circuiting lookup; a storage error at any tier is
// treated as "no override found" so resolution always produces some text.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a template resolver over the given store.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve evaluates the priority chain and returns at the first hit:
// custom message, condition/campaign override, client default, system
// default.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	res := r.resolve(ctx, req)
	metrics.RecordTemplateResolution(string(req.Type), res.Source)
	return res
}

func (r *Resolver) resolve(ctx context.Context, req Request) Resolution {
	if strings.TrimSpace(req.CustomMessage) != "" {
		return Resolution{Template: req.CustomMessage, Source: SourceCustom}
	}

	if req.Type == TypeDelivery && req.ConditionID != nil {
		cond, err := r.store.GetCampaignCondition(ctx, *req.ConditionID)
		if err != nil {
			r.logger.Debug("condition override lookup failed, continuing",
				zap.Error(err),
				zap.String("condition_id", req.ConditionID.String()),
			)
		} else if cond != nil && strings.TrimSpace(cond.DeliveryMessage) != "" {
			return Resolution{Template: cond.DeliveryMessage, Source: SourceCondition}
		}
	}

	if req.Type == TypeOptinRequest && req.CampaignID != nil {
		campaign, err := r.store.GetCampaign(ctx, *req.CampaignID)
		if err != nil {
			r.logger.Debug("campaign override lookup failed, continuing",
				zap.Error(err),
				zap.String("campaign_id", req.CampaignID.String()),
			)
		} else if campaign != nil && strings.TrimSpace(campaign.OptinRequestMessage) != "" {
			// Campaign-scoped overrides share the condition tier.
			return Resolution{Template: campaign.OptinRequestMessage, Source: SourceCondition}
		}
	}

	tmpl, err := r.store.GetDefaultTemplate(ctx, req.ClientID, string(req.Type), defaultTemplateName)
	if err != nil {
		r.logger.Debug("client default template lookup failed, continuing",
			zap.Error(err),
			zap.String("client_id", req.ClientID.String()),
			zap.String("template_type", string(req.Type)),
		)
	} else if tmpl != nil && strings.TrimSpace(tmpl.Content) != "" {
		return Resolution{Template: tmpl.Content, Source: SourceClient}
	}

	return Resolution{Template: SystemDefault(req.Type), Source: SourceSystem}
}
