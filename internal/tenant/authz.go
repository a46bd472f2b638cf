// Package tenant implements the three-tier ownership chain (client →
// agency → platform admin) used for both authorization and carrier
// credential resolution.
package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/errs"
)

// Decision is the outcome of one authorization check. It is computed fresh
// per request and never cached, so it always reflects current role state.
type Decision struct {
	Authorized bool   `json:"authorized"`
	IsAdmin    bool   `json:"is_admin"`
	Reason     string `json:"reason,omitempty"`
}

// Store is the storage surface authorization and credential resolution
// read from.
type Store interface {
	UserHasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error)
	IsAgencyOwner(ctx context.Context, userID, agencyID uuid.UUID) (bool, error)
	HasClientAssociation(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
	GetClient(ctx context.Context, id uuid.UUID) (*db.Client, error)
	GetCredential(ctx context.Context, level string, entityID uuid.UUID) (*db.SMSCredential, error)
}

// Service answers authorization questions and resolves effective carrier
// credentials across the tenant hierarchy.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a tenant service over the given store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// rule is one entry in an ordered authorization policy. Rules are evaluated
// top-down and the first match wins, which keeps the policy auditable
// without reading control flow.
type rule struct {
	reason  string
	isAdmin bool
	allow   func(ctx context.Context) (bool, error)
}

func (s *Service) evaluate(ctx context.Context, rules []rule, denyReason string) (Decision, error) {
	for _, r := range rules {
		ok, err := r.allow(ctx)
		if err != nil {
			// Storage failures during authorization are surfaced, never
			// downgraded to a deny.
			return Decision{}, fmt.Errorf("%w: %v", errs.ErrDatabase, err)
		}
		if ok {
			return Decision{Authorized: true, IsAdmin: r.isAdmin, Reason: r.reason}, nil
		}
	}
	return Decision{Authorized: false, Reason: denyReason}, nil
}

// CheckAuthorization decides whether the user may modify configuration at
// the given level. A missing entityID for agency/client levels is a
// validation failure, not an authorization failure.
func (s *Service) CheckAuthorization(ctx context.Context, userID uuid.UUID, level string, entityID *uuid.UUID) (Decision, error) {
	return s.check(ctx, userID, level, entityID, false)
}

// CheckViewAuthorization is the more permissive read-only variant: at the
// client level any directly associated user may view status, not just
// owners.
func (s *Service) CheckViewAuthorization(ctx context.Context, userID uuid.UUID, level string, entityID *uuid.UUID) (Decision, error) {
	return s.check(ctx, userID, level, entityID, true)
}

func (s *Service) check(ctx context.Context, userID uuid.UUID, level string, entityID *uuid.UUID, viewOnly bool) (Decision, error) {
	adminRule := rule{
		reason:  "platform admin",
		isAdmin: true,
		allow: func(ctx context.Context) (bool, error) {
			return s.store.UserHasRole(ctx, userID, db.RoleAdmin)
		},
	}

	switch level {
	case db.LevelAdmin:
		return s.evaluate(ctx, []rule{adminRule}, "admin role required")

	case db.LevelAgency:
		if entityID == nil {
			return Decision{}, fmt.Errorf("%w: agency id is required", errs.ErrValidation)
		}
		agencyID := *entityID
		rules := []rule{
			adminRule,
			{
				reason: "agency owner",
				allow: func(ctx context.Context) (bool, error) {
					return s.store.IsAgencyOwner(ctx, userID, agencyID)
				},
			},
		}
		return s.evaluate(ctx, rules, "agency ownership required")

	case db.LevelClient:
		if entityID == nil {
			return Decision{}, fmt.Errorf("%w: client id is required", errs.ErrValidation)
		}
		clientID := *entityID
		rules := []rule{
			adminRule,
			{
				reason: "owning agency owner",
				allow: func(ctx context.Context) (bool, error) {
					client, err := s.store.GetClient(ctx, clientID)
					if err != nil {
						if isNotFound(err) {
							return false, nil
						}
						return false, err
					}
					if client.AgencyID == nil {
						return false, nil
					}
					return s.store.IsAgencyOwner(ctx, userID, *client.AgencyID)
				},
			},
		}
		if viewOnly {
			rules = append(rules, rule{
				reason: "client member",
				allow: func(ctx context.Context) (bool, error) {
					return s.store.HasClientAssociation(ctx, userID, clientID)
				},
			})
		} else {
			rules = append(rules, rule{
				reason: "client company owner",
				allow: func(ctx context.Context) (bool, error) {
					associated, err := s.store.HasClientAssociation(ctx, userID, clientID)
					if err != nil || !associated {
						return false, err
					}
					return s.store.UserHasRole(ctx, userID, db.RoleCompanyOwner)
				},
			})
		}
		return s.evaluate(ctx, rules, "client ownership required")

	default:
		return Decision{}, fmt.Errorf("%w: unknown level %q", errs.ErrValidation, level)
	}
}
