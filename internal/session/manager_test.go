package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// fakeIdentityService scripts the backend identity service.
type fakeIdentityService struct {
	signInResult *identity.AuthResult
	signInErr    error
	signInCalls  int

	signUpResult *identity.AuthResult
	signUpErr    error
	signUpCalls  int

	sentOTPPhones []string
	sendOTPErr    error

	verifyResult *identity.AuthResult
	verifyErr    error
	verifyCalls  int

	profile    *domain.Profile
	profileErr error

	sessionIdentity *domain.Identity

	signOutCalls int
	signOutErr   error
}

func (f *fakeIdentityService) SignInWithPassword(_ context.Context, _, _ string) (*identity.AuthResult, error) {
	f.signInCalls++
	return f.signInResult, f.signInErr
}

func (f *fakeIdentityService) SignUp(_ context.Context, _ identity.SignUpInput) (*identity.AuthResult, error) {
	f.signUpCalls++
	return f.signUpResult, f.signUpErr
}

func (f *fakeIdentityService) SendOTP(_ context.Context, phone string) error {
	f.sentOTPPhones = append(f.sentOTPPhones, phone)
	return f.sendOTPErr
}

func (f *fakeIdentityService) VerifyOTP(_ context.Context, _, _ string) (*identity.AuthResult, error) {
	f.verifyCalls++
	return f.verifyResult, f.verifyErr
}

func (f *fakeIdentityService) OAuthRedirectURL(provider, _ string) (string, error) {
	return "https://auth.example.com/authorize?provider=" + provider, nil
}

func (f *fakeIdentityService) ResetPassword(_ context.Context, _ string) error {
	return nil
}

func (f *fakeIdentityService) CurrentSession(_ context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}
	return f.sessionIdentity, nil
}

func (f *fakeIdentityService) FetchProfile(_ context.Context, _ string) (*domain.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeIdentityService) SignOut(_ context.Context, _ string) error {
	f.signOutCalls++
	return f.signOutErr
}

func strPtr(s string) *string { return &s }

func testIdentity() domain.Identity {
	return domain.Identity{ID: "id-1", Email: strPtr("user@example.com")}
}

func anonymousManager(t *testing.T, svc *fakeIdentityService) *session.Manager {
	t.Helper()
	m := session.NewManager(svc, zap.NewNop(), session.Options{})
	require.NoError(t, m.Init(context.Background(), ""))
	require.Equal(t, session.StateAnonymous, m.Snapshot().State)
	return m
}

func TestSignInDerivesProfile(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profile:      &domain.Profile{ID: "id-1", Role: domain.RoleAdmin},
	}
	m := anonymousManager(t, svc)

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	snapshot := m.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	assert.False(t, snapshot.ProfilePending)
	assert.False(t, snapshot.Loading)
	require.NotNil(t, snapshot.Profile)
	assert.Equal(t, domain.RoleAdmin, snapshot.Profile.Role)
	assert.Equal(t, "tok", m.Token())
}

func TestProfileNotFoundSynthesizesDefault(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	snapshot := m.Snapshot()
	require.NotNil(t, snapshot.Profile)
	assert.Equal(t, "id-1", snapshot.Profile.ID)
	assert.Equal(t, domain.RoleUser, snapshot.Profile.Role)
}

func TestProfileServiceFailureNeverBlocksSession(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profileErr:   errors.New("profiles table unreachable"),
	}
	m := anonymousManager(t, svc)

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	snapshot := m.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.Profile)
	assert.Equal(t, domain.RoleUser, snapshot.Profile.Role)
}

func TestSignInFailureReturnsToAnonymous(t *testing.T) {
	svc := &fakeIdentityService{signInErr: apperrors.NewInvalidCredentials("")}
	m := anonymousManager(t, svc)

	err := m.SignIn(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "INVALID_CREDENTIALS"))
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
}

func TestValidationNeverReachesTheNetwork(t *testing.T) {
	svc := &fakeIdentityService{}
	m := anonymousManager(t, svc)

	assert.Error(t, m.SignIn(context.Background(), "not-an-email", "secret"))
	assert.Zero(t, svc.signInCalls)

	_, err := m.SignUp(context.Background(), "user@example.com", "short", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "WEAK_CREDENTIAL"))
	assert.Zero(t, svc.signUpCalls)

	assert.Error(t, m.SignInWithOTP(context.Background(), "12345"))
	assert.Empty(t, svc.sentOTPPhones)

	assert.Error(t, m.VerifyOTP(context.Background(), "9876543210", "12"))
	assert.Zero(t, svc.verifyCalls)
}

func TestSignUpMayRequireVerification(t *testing.T) {
	svc := &fakeIdentityService{
		signUpResult: &identity.AuthResult{Identity: testIdentity(), RequiresVerification: true},
	}
	m := anonymousManager(t, svc)

	result, err := m.SignUp(context.Background(), "user@example.com", "secret", nil)
	require.NoError(t, err)
	assert.True(t, result.RequiresVerification)
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
}

func TestOTPPhoneIsNormalizedBeforeDispatch(t *testing.T) {
	svc := &fakeIdentityService{}
	m := anonymousManager(t, svc)

	require.NoError(t, m.SignInWithOTP(context.Background(), "(987) 654-3210"))
	require.Len(t, svc.sentOTPPhones, 1)
	assert.Equal(t, "+19876543210", svc.sentOTPPhones[0])
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
}

func TestVerifyOTPAuthenticates(t *testing.T) {
	ident := domain.Identity{ID: "id-2", Phone: strPtr("+19876543210")}
	svc := &fakeIdentityService{
		verifyResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)

	require.NoError(t, m.VerifyOTP(context.Background(), "9876543210", "123456"))
	snapshot := m.Snapshot()
	assert.Equal(t, session.StateAuthenticated, snapshot.State)
	require.NotNil(t, snapshot.Profile)
	assert.Equal(t, "id-2", snapshot.Profile.ID)
	assert.Nil(t, snapshot.Profile.Email)
}

func TestSignOutIsIdempotentAndNeverThrows(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
		signOutErr:   errors.New("network down"),
	}
	m := anonymousManager(t, svc)
	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	m.SignOut(context.Background())
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
	assert.Empty(t, m.Token())

	// Second call: still anonymous, no remote call, no panic.
	m.SignOut(context.Background())
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
	assert.Equal(t, 1, svc.signOutCalls)
}

func TestRemoteDeadlineMapsToTimeout(t *testing.T) {
	svc := &fakeIdentityService{signInErr: context.DeadlineExceeded}
	m := anonymousManager(t, svc)

	err := m.SignIn(context.Background(), "user@example.com", "secret")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "TIMEOUT"))
	assert.False(t, apperrors.IsCode(err, "SERVICE_ERROR"))
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)
}

func TestSubscribersMayReadBackIntoManager(t *testing.T) {
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: testIdentity(), Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)

	var observed []session.State
	unsubscribe := m.Subscribe(func(session.Change) {
		// Reading through the manager from inside a callback must not block;
		// changes are delivered after the transition lock is released.
		observed = append(observed, m.Snapshot().State)
		_ = m.Token()
	})
	defer unsubscribe()

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))
	require.NotEmpty(t, observed)
	for _, state := range observed {
		assert.Equal(t, session.StateAuthenticated, state)
	}
}

func TestNotificationOrderPerTransition(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profile:      &domain.Profile{ID: "id-1", Role: domain.RoleUser},
	}
	m := anonymousManager(t, svc)

	var kinds []session.ChangeKind
	unsubscribe := m.Subscribe(func(change session.Change) {
		kinds = append(kinds, change.Kind)
	})
	defer unsubscribe()

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	// Anonymous -> Authenticating, then Authenticated with profile pending,
	// then the resolved profile; within each transition the order is
	// identity, profile, loading.
	assert.Equal(t, []session.ChangeKind{
		session.ChangeIdentity, session.ChangeLoading,
		session.ChangeIdentity, session.ChangeProfile, session.ChangeLoading,
		session.ChangeProfile,
	}, kinds)
}

func TestProfilePendingVisibleToSubscribers(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: ident, Token: "tok"},
		profile:      &domain.Profile{ID: "id-1", Role: domain.RoleAdmin},
	}
	m := anonymousManager(t, svc)

	var sawPending bool
	unsubscribe := m.Subscribe(func(change session.Change) {
		if change.Snapshot.State == session.StateAuthenticated && change.Snapshot.ProfilePending {
			sawPending = true
		}
	})
	defer unsubscribe()

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))
	assert.True(t, sawPending)
	assert.False(t, m.Snapshot().ProfilePending)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: testIdentity(), Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)

	count := 0
	unsubscribe := m.Subscribe(func(session.Change) { count++ })
	unsubscribe()
	unsubscribe() // safe to call twice

	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))
	assert.Zero(t, count)
}

func TestResumeSessionAfterOAuthRedirect(t *testing.T) {
	ident := testIdentity()
	svc := &fakeIdentityService{
		sessionIdentity: &ident,
		profileErr:      apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)

	url, err := m.SignInWithOAuth("google", "/portal")
	require.NoError(t, err)
	assert.Contains(t, url, "provider=google")
	assert.Equal(t, session.StateAnonymous, m.Snapshot().State)

	require.NoError(t, m.ResumeSession(context.Background(), "redirect-token"))
	assert.Equal(t, session.StateAuthenticated, m.Snapshot().State)
	assert.Equal(t, "redirect-token", m.Token())
}

func TestCredentialOpRejectedWhileAuthenticated(t *testing.T) {
	svc := &fakeIdentityService{
		signInResult: &identity.AuthResult{Identity: testIdentity(), Token: "tok"},
		profileErr:   apperrors.NewNotFound("profile", nil),
	}
	m := anonymousManager(t, svc)
	require.NoError(t, m.SignIn(context.Background(), "user@example.com", "secret"))

	err := m.SignIn(context.Background(), "user@example.com", "secret")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}
