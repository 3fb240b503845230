// Package local implements the identity capability set against the portal's
// own postgres and redis instances. It stands in for a hosted provider in
// self-contained deployments; the session manager only ever sees the
// identity.Service interface.
package local

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Rohit5932/consult-smart-portal/internal/config"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/repository"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

const (
	otpKeyPrefix     = "identity:otp:"
	resetKeyPrefix   = "identity:pwdreset:"
	revokedKeyPrefix = "identity:revoked:"
)

var _ identity.Service = (*Provider)(nil)

// Provider implements identity.Service.
type Provider struct {
	identities repository.IdentityRepository
	profiles   repository.ProfileRepository
	redis      *redis.Client
	tokens     *TokenManager
	logger     *zap.Logger
	cfg        config.IdentityConfig

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

// Dependencies bundles requirements for the provider.
type Dependencies struct {
	IdentityRepo repository.IdentityRepository
	ProfileRepo  repository.ProfileRepository
	Redis        *redis.Client
	Logger       *zap.Logger
}

// NewProvider builds the provider.
func NewProvider(cfg config.IdentityConfig, deps Dependencies) *Provider {
	return &Provider{
		identities: deps.IdentityRepo,
		profiles:   deps.ProfileRepo,
		redis:      deps.Redis,
		tokens:     NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTLMinutes),
		logger:     deps.Logger,
		cfg:        cfg,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// SignInWithPassword authenticates an email/password pair.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	id, hash, err := p.identities.PasswordHashByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidCredentials("")
		}
		return nil, apperrors.FromRemote("sign-in", err)
	}
	if hash == "" || ComparePassword(hash, password) != nil {
		return nil, apperrors.NewInvalidCredentials("")
	}

	ident, err := p.identities.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRemote("sign-in", err)
	}
	return p.issueSession(ident)
}

// SignUp provisions a new identity with a password credential.
func (p *Provider) SignUp(ctx context.Context, input identity.SignUpInput) (*identity.AuthResult, error) {
	if _, err := p.identities.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewDuplicateAccount("email already registered")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.FromRemote("sign-up", err)
	}

	hash, err := HashPassword(input.Password, p.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	email := input.Email
	ident := &domain.Identity{
		Email:       &email,
		DisplayName: input.DisplayName,
	}
	if err := p.identities.Create(ctx, ident, &hash); err != nil {
		return nil, apperrors.FromRemote("sign-up", err)
	}
	p.provisionProfile(ctx, ident)

	if p.cfg.RequireEmailVerification {
		// Verification mail delivery is an external collaborator; the
		// identity stays unusable until the link is followed.
		p.logger.Info("sign-up pending verification", zap.String("identity_id", ident.ID))
		return &identity.AuthResult{Identity: *ident, RequiresVerification: true}, nil
	}
	return p.issueSession(ident)
}

// SendOTP stores a one-time code for the phone number and hands it to the SMS
// gateway. Sends are rate limited per phone.
func (p *Provider) SendOTP(ctx context.Context, phone string) error {
	if p.redis == nil {
		return apperrors.NewServiceError("otp send", errors.New("otp storage unavailable"))
	}
	if !p.allowSend(phone) {
		return apperrors.NewConflict("too many codes requested, try again later", nil)
	}

	code, err := generateOTP()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	ttl := time.Duration(p.cfg.OTPTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if err := p.redis.Set(ctx, otpKeyPrefix+phone, code, ttl).Err(); err != nil {
		return apperrors.FromRemote("otp send", err)
	}

	// SMS delivery is an external collaborator; in development the code is
	// only logged.
	p.logger.Info("otp issued", zap.String("phone", phone))
	return nil
}

// VerifyOTP exchanges a received code for a session, provisioning the
// identity on first phone sign-in.
func (p *Provider) VerifyOTP(ctx context.Context, phone, code string) (*identity.AuthResult, error) {
	if p.redis == nil {
		return nil, apperrors.NewServiceError("otp verify", errors.New("otp storage unavailable"))
	}
	stored, err := p.redis.Get(ctx, otpKeyPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewInvalidCredentials("verification failed")
		}
		return nil, apperrors.FromRemote("otp verify", err)
	}
	if stored != code {
		return nil, apperrors.NewInvalidCredentials("verification failed")
	}
	_ = p.redis.Del(ctx, otpKeyPrefix+phone).Err()

	ident, err := p.identities.GetByPhone(ctx, phone)
	if errors.Is(err, pgx.ErrNoRows) {
		ident = &domain.Identity{Phone: &phone}
		if err := p.identities.Create(ctx, ident, nil); err != nil {
			return nil, apperrors.FromRemote("otp verify", err)
		}
		p.provisionProfile(ctx, ident)
	} else if err != nil {
		return nil, apperrors.FromRemote("otp verify", err)
	}
	return p.issueSession(ident)
}

// OAuthRedirectURL builds the provider redirect entry point.
func (p *Provider) OAuthRedirectURL(provider, redirectTo string) (string, error) {
	if p.cfg.OAuthBaseURL == "" {
		return "", apperrors.NewServiceError("oauth", errors.New("no oauth base url configured"))
	}
	base, err := url.Parse(p.cfg.OAuthBaseURL)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	base.Path, err = url.JoinPath(base.Path, "authorize")
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	q := base.Query()
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// ResetPassword issues a reset token for the email. Mail delivery is an
// external collaborator. An unknown email is not an error, to avoid leaking
// which addresses hold accounts.
func (p *Provider) ResetPassword(ctx context.Context, email string) error {
	ident, err := p.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.FromRemote("password reset", err)
	}
	if p.redis == nil {
		return apperrors.NewServiceError("password reset", errors.New("reset storage unavailable"))
	}

	token := newResetToken()
	ttl := time.Duration(p.cfg.PasswordResetTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if err := p.redis.Set(ctx, resetKeyPrefix+token, ident.ID, ttl).Err(); err != nil {
		return apperrors.FromRemote("password reset", err)
	}
	p.logger.Info("password reset issued", zap.String("identity_id", ident.ID))
	return nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if p.redis == nil {
		return apperrors.NewServiceError("password reset", errors.New("reset storage unavailable"))
	}
	identityID, err := p.redis.Get(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.NewInvalidCredentials("reset token expired or used")
		}
		return apperrors.FromRemote("password reset", err)
	}

	hash, err := HashPassword(newPassword, p.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := p.identities.UpdatePassword(ctx, identityID, hash); err != nil {
		return apperrors.FromRemote("password reset", err)
	}
	_ = p.redis.Del(ctx, resetKeyPrefix+token).Err()
	return nil
}

// CurrentSession resolves a previously issued token. Expired, malformed or
// revoked tokens yield no session rather than an error.
func (p *Provider) CurrentSession(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil, nil
	}
	if p.revoked(ctx, token) {
		return nil, nil
	}

	ident, err := p.identities.GetByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.FromRemote("session lookup", err)
	}
	return ident, nil
}

// FetchProfile loads the portal profile for an identity.
func (p *Provider) FetchProfile(ctx context.Context, identityID string) (*domain.Profile, error) {
	profile, err := p.profiles.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": identityID})
		}
		return nil, apperrors.FromRemote("profile fetch", err)
	}
	return profile, nil
}

// SignOut revokes the token until its natural expiry.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" || p.redis == nil {
		return nil
	}
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := p.redis.Set(ctx, revokedKeyPrefix+tokenDigest(token), "1", ttl).Err(); err != nil {
		return apperrors.FromRemote("sign-out", err)
	}
	return nil
}

// provisionProfile writes the default user-role profile row for a freshly
// created identity. Best effort: the session layer synthesizes a default
// profile whenever the row is missing, so a failed upsert never blocks
// sign-up.
func (p *Provider) provisionProfile(ctx context.Context, ident *domain.Identity) {
	if err := p.profiles.Upsert(ctx, domain.DefaultProfile(*ident)); err != nil {
		p.logger.Warn("profile provisioning failed",
			zap.String("identity_id", ident.ID), zap.Error(err))
	}
}

func (p *Provider) issueSession(ident *domain.Identity) (*identity.AuthResult, error) {
	token, expiresAt, err := p.tokens.GenerateToken(ident.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &identity.AuthResult{Identity: *ident, Token: token, ExpiresAt: expiresAt}, nil
}

func (p *Provider) revoked(ctx context.Context, token string) bool {
	if p.redis == nil {
		return false
	}
	exists, err := p.redis.Exists(ctx, revokedKeyPrefix+tokenDigest(token)).Result()
	if err != nil {
		p.logger.Warn("revocation check failed", zap.Error(err))
		return false
	}
	return exists > 0
}

func (p *Provider) allowSend(phone string) bool {
	perMinute := p.cfg.OTPSendsPerMinute
	if perMinute <= 0 {
		perMinute = 3
	}
	p.limiterMu.Lock()
	limiter, ok := p.limiters[phone]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		p.limiters[phone] = limiter
	}
	p.limiterMu.Unlock()
	return limiter.Allow()
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func newResetToken() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
