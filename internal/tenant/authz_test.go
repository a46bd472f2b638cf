package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reachcraft/messaging/internal/db"
	"github.com/reachcraft/messaging/internal/errs"
)

// fakeTenantStore is a scriptable Store for authorization and credential
// tests. Zero value denies everything and holds no credentials.
type fakeTenantStore struct {
	roles        map[string]bool      // userID|role
	agencyOwners map[string]bool      // userID|agencyID
	associations map[string]bool      // userID|clientID
	clients      map[uuid.UUID]*db.Client
	credentials  map[string]*db.SMSCredential // level|entityID

	err error // returned from every call when set
}

func key(a, b string) string { return a + "|" + b }

func (f *fakeTenantStore) UserHasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.roles[key(userID.String(), role)], nil
}

func (f *fakeTenantStore) IsAgencyOwner(ctx context.Context, userID, agencyID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.agencyOwners[key(userID.String(), agencyID.String())], nil
}

func (f *fakeTenantStore) HasClientAssociation(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.associations[key(userID.String(), clientID.String())], nil
}

func (f *fakeTenantStore) GetClient(ctx context.Context, id uuid.UUID) (*db.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	client, ok := f.clients[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return client, nil
}

func (f *fakeTenantStore) GetCredential(ctx context.Context, level string, entityID uuid.UUID) (*db.SMSCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	cred, ok := f.credentials[key(level, entityID.String())]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cred, nil
}

func newFakeStore() *fakeTenantStore {
	return &fakeTenantStore{
		roles:        make(map[string]bool),
		agencyOwners: make(map[string]bool),
		associations: make(map[string]bool),
		clients:      make(map[uuid.UUID]*db.Client),
		credentials:  make(map[string]*db.SMSCredential),
	}
}

func TestCheckAuthorizationAdminLevel(t *testing.T) {
	admin := uuid.New()
	nobody := uuid.New()

	store := newFakeStore()
	store.roles[key(admin.String(), db.RoleAdmin)] = true
	svc := NewService(store, zap.NewNop())

	ctx := context.Background()

	decision, err := svc.CheckAuthorization(ctx, admin, db.LevelAdmin, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Authorized || !decision.IsAdmin {
		t.Errorf("admin should be authorized as admin, got %+v", decision)
	}

	decision, err = svc.CheckAuthorization(ctx, nobody, db.LevelAdmin, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Authorized {
		t.Error("non-admin must be denied at the admin level")
	}
	if decision.Reason == "" {
		t.Error("denial should carry a reason")
	}
}

func TestCheckAuthorizationAgencyLevel(t *testing.T) {
	owner := uuid.New()
	agencyID := uuid.New()

	store := newFakeStore()
	store.agencyOwners[key(owner.String(), agencyID.String())] = true
	svc := NewService(store, zap.NewNop())

	ctx := context.Background()

	decision, err := svc.CheckAuthorization(ctx, owner, db.LevelAgency, &agencyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Authorized || decision.IsAdmin {
		t.Errorf("agency owner should be authorized without admin flag, got %+v", decision)
	}

	other := uuid.New()
	decision, err = svc.CheckAuthorization(ctx, owner, db.LevelAgency, &other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Authorized {
		t.Error("ownership of one agency must not grant another")
	}
}

func TestCheckAuthorizationMissingEntityIDIsValidationError(t *testing.T) {
	svc := NewService(newFakeStore(), zap.NewNop())
	ctx := context.Background()

	for _, level := range []string{db.LevelAgency, db.LevelClient} {
		if _, err := svc.CheckAuthorization(ctx, uuid.New(), level, nil); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("level %s: missing entity id should be a validation error, got %v", level, err)
		}
	}
}

func TestCheckAuthorizationUnknownLevel(t *testing.T) {
	svc := NewService(newFakeStore(), zap.NewNop())
	id := uuid.New()

	if _, err := svc.CheckAuthorization(context.Background(), uuid.New(), "galaxy", &id); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("unknown level should be a validation error, got %v", err)
	}
}

func TestCheckAuthorizationClientLevelOwningAgency(t *testing.T) {
	owner := uuid.New()
	agencyID := uuid.New()
	clientID := uuid.New()

	store := newFakeStore()
	store.clients[clientID] = &db.Client{ID: clientID, AgencyID: &agencyID}
	store.agencyOwners[key(owner.String(), agencyID.String())] = true
	svc := NewService(store, zap.NewNop())

	decision, err := svc.CheckAuthorization(context.Background(), owner, db.LevelClient, &clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Authorized {
		t.Errorf("owner of the owning agency should modify client config, got %+v", decision)
	}
}

func TestCheckAuthorizationClientMemberViewVsModify(t *testing.T) {
	member := uuid.New()
	clientID := uuid.New()

	store := newFakeStore()
	store.clients[clientID] = &db.Client{ID: clientID}
	store.associations[key(member.String(), clientID.String())] = true
	svc := NewService(store, zap.NewNop())

	ctx := context.Background()

	view, err := svc.CheckViewAuthorization(ctx, member, db.LevelClient, &clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Authorized {
		t.Error("any associated user may view client config status")
	}

	modify, err := svc.CheckAuthorization(ctx, member, db.LevelClient, &clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modify.Authorized {
		t.Error("association without the company owner role must not grant modify")
	}
}

func TestCheckAuthorizationClientCompanyOwner(t *testing.T) {
	owner := uuid.New()
	clientID := uuid.New()

	store := newFakeStore()
	store.clients[clientID] = &db.Client{ID: clientID}
	store.associations[key(owner.String(), clientID.String())] = true
	store.roles[key(owner.String(), db.RoleCompanyOwner)] = true
	svc := NewService(store, zap.NewNop())

	decision, err := svc.CheckAuthorization(context.Background(), owner, db.LevelClient, &clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Authorized {
		t.Errorf("associated company owner should modify client config, got %+v", decision)
	}
}

func TestCheckAuthorizationMissingClientDenies(t *testing.T) {
	clientID := uuid.New()
	svc := NewService(newFakeStore(), zap.NewNop())

	decision, err := svc.CheckAuthorization(context.Background(), uuid.New(), db.LevelClient, &clientID)
	if err != nil {
		t.Fatalf("missing client must deny, not error: %v", err)
	}
	if decision.Authorized {
		t.Error("unknown client should deny")
	}
}

func TestCheckAuthorizationStorageErrorSurfaces(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	svc := NewService(store, zap.NewNop())

	_, err := svc.CheckAuthorization(context.Background(), uuid.New(), db.LevelAdmin, nil)
	if !errors.Is(err, errs.ErrDatabase) {
		t.Errorf("storage failure should surface as a database error, got %v", err)
	}
}
