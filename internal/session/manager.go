// Package session owns the authentication state for one portal client:
// who is signed in, their derived authorization profile, and the
// notifications consumers rely on to re-render.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/validate"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// State enumerates the session lifecycle.
type State string

const (
	// StateUnknown is the initial state before Init resolves.
	StateUnknown State = "unknown"
	// StateAnonymous means no identity is present.
	StateAnonymous State = "anonymous"
	// StateAuthenticating means a credential operation is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means an identity is present. The profile may still
	// be pending; consumers check Snapshot.ProfilePending.
	StateAuthenticated State = "authenticated"
)

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State State
	// Identity is set only in StateAuthenticated.
	Identity *domain.Identity
	// Profile is set once derived; nil while ProfilePending.
	Profile *domain.Profile
	// ProfilePending marks the authenticated sub-state where the profile has
	// not been resolved yet. Role-gated consumers keep showing a loading
	// affordance rather than assume non-admin.
	ProfilePending bool
	// Loading is true while Init or a credential operation runs.
	Loading bool
}

// ChangeKind names the facet of the session a notification refers to.
// For any transition, subscribers see changes in the fixed order
// identity, profile, loading.
type ChangeKind string

const (
	ChangeIdentity ChangeKind = "identity"
	ChangeProfile  ChangeKind = "profile"
	ChangeLoading  ChangeKind = "loading"
)

// Change is delivered to subscribers on every transition facet.
type Change struct {
	Kind     ChangeKind
	Snapshot Snapshot
}

// SignUpResult tells the caller whether the new account still needs external
// verification before it is usable.
type SignUpResult struct {
	RequiresVerification bool
}

// Manager is the single source of truth for "who is logged in and what can
// they do". Transitions are serialized: a credential operation, including its
// profile-fetch sub-step, completes before the next one is admitted.
type Manager struct {
	svc     identity.Service
	logger  *zap.Logger
	timeout time.Duration

	countryCode string

	mu             sync.Mutex
	state          State
	identity       *domain.Identity
	profile        *domain.Profile
	profilePending bool
	loading        bool
	token          string
	pending        []Change

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// Options tunes manager behavior.
type Options struct {
	// Timeout bounds every backend call. Zero means 15s.
	Timeout time.Duration
	// DefaultCountryCode prefixes bare national phone numbers. Empty means "1".
	DefaultCountryCode string
}

// NewManager builds a session manager against the given identity service.
func NewManager(svc identity.Service, logger *zap.Logger, opts Options) *Manager {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	countryCode := opts.DefaultCountryCode
	if countryCode == "" {
		countryCode = "1"
	}
	return &Manager{
		svc:         svc,
		logger:      logger,
		timeout:     timeout,
		countryCode: countryCode,
		state:       StateUnknown,
		loading:     true,
		subs:        make(map[int]func(Change)),
	}
}

// Init resolves any existing session. token is whatever the identity
// service's own storage handed back on startup; empty means none.
func (m *Manager) Init(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ident, err := m.svc.CurrentSession(cctx, token)
	if err != nil {
		m.logger.Warn("session restore failed", zap.Error(err))
		m.transition(StateAnonymous, nil, nil, false)
		return apperrors.FromRemote("session restore", err)
	}
	if ident == nil {
		m.transition(StateAnonymous, nil, nil, false)
		return nil
	}

	m.token = token
	m.enterAuthenticated(ctx, ident)
	return nil
}

// Snapshot returns the current immutable view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Token returns the current session token, empty when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe registers for transition notifications. Callbacks run after the
// operation that caused the transition has released the manager lock, so a
// subscriber may call back into the manager. The returned function removes
// the subscription; it is safe to call more than once.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// SignIn authenticates an email/password pair. On failure the session
// returns to Anonymous and the typed outcome is handed to the caller.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	normalized, err := validate.Email(email)
	if err != nil {
		return err
	}
	if password == "" {
		return apperrors.NewInvalidCredentials("")
	}

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	if err := m.beginCredentialOp(); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	result, err := m.svc.SignInWithPassword(cctx, normalized, password)
	if err != nil {
		m.transition(StateAnonymous, nil, nil, false)
		return apperrors.FromRemote("sign-in", err)
	}
	m.completeAuth(ctx, result)
	return nil
}

// SignUp provisions a new account. Depending on the provider the identity
// may require external verification before it is authenticated; the result
// says which, and the caller is never assumed authenticated.
func (m *Manager) SignUp(ctx context.Context, email, password string, displayName *string) (SignUpResult, error) {
	normalized, err := validate.Email(email)
	if err != nil {
		return SignUpResult{}, err
	}
	if err := validate.Password(password); err != nil {
		return SignUpResult{}, err
	}

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	if err := m.beginCredentialOp(); err != nil {
		return SignUpResult{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	result, err := m.svc.SignUp(cctx, identity.SignUpInput{
		Email:       normalized,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		m.transition(StateAnonymous, nil, nil, false)
		return SignUpResult{}, apperrors.FromRemote("sign-up", err)
	}
	if result.RequiresVerification {
		m.transition(StateAnonymous, nil, nil, false)
		return SignUpResult{RequiresVerification: true}, nil
	}
	m.completeAuth(ctx, result)
	return SignUpResult{}, nil
}

// SignInWithOAuth starts a redirect-based flow and returns the entry URL.
// No synchronous result exists; the session resumes via ResumeSession once
// the provider redirects back with a token.
func (m *Manager) SignInWithOAuth(provider, redirectTo string) (string, error) {
	return m.svc.OAuthRedirectURL(provider, redirectTo)
}

// ResumeSession completes a redirect-based flow (or any externally obtained
// token) by resolving it into an authenticated session.
func (m *Manager) ResumeSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	ident, err := m.svc.CurrentSession(cctx, token)
	if err != nil {
		return apperrors.FromRemote("session resume", err)
	}
	if ident == nil {
		return apperrors.NewInvalidCredentials("session could not be resumed")
	}

	m.token = token
	m.enterAuthenticated(ctx, ident)
	return nil
}

// SignInWithOTP normalizes the phone number and requests a one-time code.
func (m *Manager) SignInWithOTP(ctx context.Context, phone string) error {
	normalized, err := validate.Phone(phone, m.countryCode)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	if err := m.beginCredentialOp(); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.svc.SendOTP(cctx, normalized); err != nil {
		m.transition(StateAnonymous, nil, nil, false)
		return apperrors.FromRemote("otp send", err)
	}
	// Code sent; still anonymous until VerifyOTP succeeds.
	m.transition(StateAnonymous, nil, nil, false)
	return nil
}

// VerifyOTP exchanges a received code for an authenticated session.
func (m *Manager) VerifyOTP(ctx context.Context, phone, code string) error {
	normalized, err := validate.Phone(phone, m.countryCode)
	if err != nil {
		return err
	}
	if err := validate.OTP(code); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.flush()
	defer m.mu.Unlock()
	if err := m.beginCredentialOp(); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	result, err := m.svc.VerifyOTP(cctx, normalized, code)
	if err != nil {
		m.transition(StateAnonymous, nil, nil, false)
		return apperrors.FromRemote("otp verify", err)
	}
	m.completeAuth(ctx, result)
	return nil
}

// ResetPassword starts a password reset for the email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	normalized, err := validate.Email(email)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.svc.ResetPassword(cctx, normalized); err != nil {
		return apperrors.FromRemote("password reset", err)
	}
	return nil
}

// SignOut always transitions to Anonymous and never surfaces an error: the
// local transition is authoritative, the remote revocation is best effort.
// Calling it repeatedly is harmless.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.token = ""
	m.transition(StateAnonymous, nil, nil, false)
	m.mu.Unlock()
	m.flush()

	if token == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.svc.SignOut(cctx, token); err != nil {
		m.logger.Warn("remote sign-out failed", zap.Error(err))
	}
}

// Close releases all subscriptions. The manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()

	m.subMu.Lock()
	m.subs = make(map[int]func(Change))
	m.subMu.Unlock()
}

// beginCredentialOp moves Anonymous -> Authenticating. Credential operations
// are rejected from any other state: Unknown callers must Init first, and an
// authenticated session must sign out before re-authenticating.
func (m *Manager) beginCredentialOp() error {
	switch m.state {
	case StateAnonymous:
		m.transition(StateAuthenticating, nil, nil, false)
		return nil
	case StateAuthenticating:
		return apperrors.NewConflict("another credential operation is in flight", nil)
	case StateAuthenticated:
		return apperrors.NewConflict("already authenticated", nil)
	default:
		return apperrors.NewConflict("session not initialized", nil)
	}
}

func (m *Manager) completeAuth(ctx context.Context, result *identity.AuthResult) {
	m.token = result.Token
	ident := result.Identity
	m.enterAuthenticated(ctx, &ident)
}

// enterAuthenticated publishes the Authenticated state with the profile
// still pending, then resolves the profile as a second, ordered transition.
// Role-gated consumers block only for the duration of the fetch. The whole
// two-step sequence runs under the transition lock, so no other auth event
// interleaves with the profile sub-step.
func (m *Manager) enterAuthenticated(ctx context.Context, ident *domain.Identity) {
	m.transition(StateAuthenticated, ident, nil, true)

	profile := DeriveProfile(ctx, m.svc, m.logger, m.timeout, *ident)
	m.transition(StateAuthenticated, ident, profile, false)
}

// DeriveProfile fetches the profile for an identity, synthesizing the
// default user-role profile when the row is missing or the fetch fails for
// any other reason. A profile-service failure must never block a session.
func DeriveProfile(ctx context.Context, svc identity.Service, logger *zap.Logger, timeout time.Duration, ident domain.Identity) *domain.Profile {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	profile, err := svc.FetchProfile(cctx, ident.ID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			logger.Warn("profile fetch degraded to default",
				zap.String("identity_id", ident.ID), zap.Error(err))
		}
		return domain.DefaultProfile(ident)
	}
	return profile
}

// Resolve builds a one-shot snapshot for a presented token, outside any
// long-lived manager. The HTTP layer uses it to gate each request with the
// same identity and profile derivation rules the manager applies.
func Resolve(ctx context.Context, svc identity.Service, logger *zap.Logger, timeout time.Duration, token string) (Snapshot, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ident, err := svc.CurrentSession(cctx, token)
	if err != nil {
		return Snapshot{State: StateAnonymous}, apperrors.FromRemote("session lookup", err)
	}
	if ident == nil {
		return Snapshot{State: StateAnonymous}, nil
	}
	profile := DeriveProfile(ctx, svc, logger, timeout, *ident)
	return Snapshot{
		State:    StateAuthenticated,
		Identity: ident,
		Profile:  profile,
	}, nil
}

// transition applies the new state and queues one notification per changed
// facet, in the order identity, profile, loading. Callers hold m.mu; the
// queued changes are delivered by flush once the lock is released.
func (m *Manager) transition(state State, ident *domain.Identity, profile *domain.Profile, profilePending bool) {
	identityChanged := !sameIdentity(m.identity, ident) || m.state != state
	profileChanged := !sameProfile(m.profile, profile) || m.profilePending != profilePending

	loading := state == StateUnknown || state == StateAuthenticating
	loadingChanged := m.loading != loading

	m.state = state
	m.identity = ident
	m.profile = profile
	m.profilePending = profilePending
	m.loading = loading

	snapshot := m.snapshotLocked()
	if identityChanged {
		m.pending = append(m.pending, Change{Kind: ChangeIdentity, Snapshot: snapshot})
	}
	if profileChanged {
		m.pending = append(m.pending, Change{Kind: ChangeProfile, Snapshot: snapshot})
	}
	if loadingChanged {
		m.pending = append(m.pending, Change{Kind: ChangeLoading, Snapshot: snapshot})
	}
}

// flush delivers the queued changes outside the transition lock, so a
// subscriber may call back into the manager without deadlocking. Each Change
// carries the snapshot taken at its transition; delivery order is preserved.
func (m *Manager) flush() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, change := range pending {
		m.notify(change)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:          m.state,
		Identity:       m.identity,
		Profile:        m.profile,
		ProfilePending: m.profilePending,
		Loading:        m.loading,
	}
}

func (m *Manager) notify(change Change) {
	m.subMu.Lock()
	subs := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

func sameProfile(a, b *domain.Profile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Role == b.Role
}
