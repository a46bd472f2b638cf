package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/errs"
)

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}

// usable reports whether a credential tier can actually be used: a row with
// an empty account identifier does not count.
func usable(cred *db.SMSCredential) bool {
	return cred != nil && cred.AccountSID != ""
}

// ResolveCredential walks the hierarchy from the requested level upward and
// returns the first tier with a non-empty account identifier. Most-specific
// wins: an existing client credential is never shortcut past even when its
// agency also has one. The lookup itself does no permission checks; it runs
// only after authorization has passed.
func (s *Service) ResolveCredential(ctx context.Context, level string, entityID *uuid.UUID) (*db.SMSCredential, error) {
	switch level {
	case db.LevelClient:
		if entityID == nil {
			return nil, fmt.Errorf("%w: client id is required", errs.ErrValidation)
		}
		return s.resolveClient(ctx, *entityID)

	case db.LevelAgency:
		if entityID == nil {
			return nil, fmt.Errorf("%w: agency id is required", errs.ErrValidation)
		}
		return s.resolveAgency(ctx, *entityID)

	case db.LevelAdmin:
		return s.resolveAdmin(ctx)

	default:
		return nil, fmt.Errorf("%w: unknown level %q", errs.ErrValidation, level)
	}
}

func (s *Service) resolveClient(ctx context.Context, clientID uuid.UUID) (*db.SMSCredential, error) {
	cred, err := s.store.GetCredential(ctx, db.LevelClient, clientID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabase, err)
	}
	if usable(cred) {
		return cred, nil
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabase, err)
	}
	if client != nil && client.AgencyID != nil {
		return s.resolveAgency(ctx, *client.AgencyID)
	}

	return s.resolveAdmin(ctx)
}

func (s *Service) resolveAgency(ctx context.Context, agencyID uuid.UUID) (*db.SMSCredential, error) {
	cred, err := s.store.GetCredential(ctx, db.LevelAgency, agencyID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabase, err)
	}
	if usable(cred) {
		return cred, nil
	}

	return s.resolveAdmin(ctx)
}

func (s *Service) resolveAdmin(ctx context.Context) (*db.SMSCredential, error) {
	cred, err := s.store.GetCredential(ctx, db.LevelAdmin, uuid.Nil)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("%w: %v", errs.ErrDatabase, err)
	}
	if usable(cred) {
		return cred, nil
	}

	s.logger.Error("no sms credential at any hierarchy tier")
	return nil, fmt.Errorf("%w: no carrier credential at any tier", errs.ErrNotConfigured)
}
