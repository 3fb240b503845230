package service_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/service"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

type fakeProfileRepo struct {
	profiles     map[string]*domain.Profile
	setRoleCalls int
}

func newFakeProfileRepo(profiles ...*domain.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[string]*domain.Profile)}
	for _, profile := range profiles {
		repo.profiles[profile.ID] = profile
	}
	return repo
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *profile
	return &out, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *domain.Profile) error {
	stored := *profile
	f.profiles[profile.ID] = &stored
	return nil
}

func (f *fakeProfileRepo) SetRole(_ context.Context, id string, role domain.Role) error {
	f.setRoleCalls++
	profile, ok := f.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.Role = role
	return nil
}

func TestPromoteRole(t *testing.T) {
	repo := newFakeProfileRepo(&domain.Profile{ID: "id-1", Role: domain.RoleUser})
	svc := service.NewProfileService(repo)

	profile, err := svc.SetRole(context.Background(), "id-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, profile.Role)

	// Demotion uses the same path.
	profile, err = svc.SetRole(context.Background(), "id-1", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, profile.Role)
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	repo := newFakeProfileRepo(&domain.Profile{ID: "id-1", Role: domain.RoleUser})
	svc := service.NewProfileService(repo)

	_, err := svc.SetRole(context.Background(), "id-1", "superuser")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Zero(t, repo.setRoleCalls)
}

func TestSetRoleMissingProfile(t *testing.T) {
	svc := service.NewProfileService(newFakeProfileRepo())

	_, err := svc.SetRole(context.Background(), "missing", domain.RoleAdmin)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetProfile(t *testing.T) {
	repo := newFakeProfileRepo(&domain.Profile{ID: "id-1", Role: domain.RoleAdmin})
	svc := service.NewProfileService(repo)

	profile, err := svc.Get(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, profile.Role)

	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
