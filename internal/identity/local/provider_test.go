package local_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rohit5932/consult-smart-portal/internal/config"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/identity/local"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

func identitySignUp(email, password string) identity.SignUpInput {
	return identity.SignUpInput{Email: email, Password: password}
}

type fakeProfileRepo struct {
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.Profile)}
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
	if profile.Role == "" {
		profile.Role = domain.RoleUser
	}
	stored := *profile
	f.profiles[profile.ID] = &stored
	return nil
}

func (f *fakeProfileRepo) SetRole(_ context.Context, id string, role domain.Role) error {
	profile, ok := f.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.Role = role
	return nil
}

type fakeIdentityRepo struct {
	byEmail map[string]*domain.Identity
	hashes  map[string]string
	nextID  int
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{
		byEmail: make(map[string]*domain.Identity),
		hashes:  make(map[string]string),
	}
}

func (f *fakeIdentityRepo) Create(_ context.Context, ident *domain.Identity, passwordHash *string) error {
	f.nextID++
	ident.ID = string(rune('0' + f.nextID))
	stored := *ident
	if ident.Email != nil {
		f.byEmail[*ident.Email] = &stored
	}
	if passwordHash != nil {
		f.hashes[*ident.Email] = *passwordHash
	}
	return nil
}

func (f *fakeIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	for _, ident := range f.byEmail {
		if ident.ID == id {
			out := *ident
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	ident, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *ident
	return &out, nil
}

func (f *fakeIdentityRepo) GetByPhone(_ context.Context, _ string) (*domain.Identity, error) {
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentityRepo) PasswordHashByEmail(_ context.Context, email string) (string, string, error) {
	ident, ok := f.byEmail[email]
	if !ok {
		return "", "", pgx.ErrNoRows
	}
	return ident.ID, f.hashes[email], nil
}

func (f *fakeIdentityRepo) UpdatePassword(_ context.Context, _, _ string) error {
	return nil
}

func testConfig() config.IdentityConfig {
	return config.IdentityConfig{
		JWTSecret:              "test-secret",
		SessionTokenTTLMinutes: 60,
		BcryptCost:             bcrypt.MinCost,
	}
}

func newProvider(idents *fakeIdentityRepo, profiles *fakeProfileRepo) *local.Provider {
	return local.NewProvider(testConfig(), local.Dependencies{
		IdentityRepo: idents,
		ProfileRepo:  profiles,
		Logger:       zap.NewNop(),
	})
}

func TestSignUpProvisionsDefaultProfile(t *testing.T) {
	idents := newFakeIdentityRepo()
	profiles := newFakeProfileRepo()
	provider := newProvider(idents, profiles)

	result, err := provider.SignUp(context.Background(), identitySignUp("user@example.com", "secret"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.RequiresVerification)

	// The profile row exists immediately, carrying the user role; promotion
	// later happens through SetRole only.
	profile, err := profiles.GetByID(context.Background(), result.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, profile.Role)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "user@example.com", *profile.Email)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	idents := newFakeIdentityRepo()
	provider := newProvider(idents, newFakeProfileRepo())

	_, err := provider.SignUp(context.Background(), identitySignUp("user@example.com", "secret"))
	require.NoError(t, err)
	_, err = provider.SignUp(context.Background(), identitySignUp("user@example.com", "other-secret"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "DUPLICATE_ACCOUNT"))
}

func TestSignInRoundTrip(t *testing.T) {
	idents := newFakeIdentityRepo()
	provider := newProvider(idents, newFakeProfileRepo())
	_, err := provider.SignUp(context.Background(), identitySignUp("user@example.com", "secret"))
	require.NoError(t, err)

	result, err := provider.SignInWithPassword(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = provider.SignInWithPassword(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_CREDENTIALS"))
}

func TestFetchProfileMissingRowIsNotFound(t *testing.T) {
	provider := newProvider(newFakeIdentityRepo(), newFakeProfileRepo())

	_, err := provider.FetchProfile(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
