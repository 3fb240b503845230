// Package identity defines the capability set the portal consumes from a
// backend identity service. The session manager is written against this
// interface only and does not assume a specific provider.
package identity

import (
	"context"
	"time"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// AuthResult is returned by credential operations that establish a session.
type AuthResult struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
	// RequiresVerification is set when the provider demands external
	// verification (e.g. an email link) before the identity becomes fully
	// authenticated; in that case Token is empty.
	RequiresVerification bool
}

// SignUpInput carries new account parameters.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName *string
}

// Service is the opaque backend identity provider. Implementations must
// return errors from the pkg/util taxonomy so callers can map outcomes
// without knowing the provider.
type Service interface {
	// SignInWithPassword authenticates an email/password pair.
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResult, error)

	// SignUp provisions a new identity. The result may carry
	// RequiresVerification instead of a usable token.
	SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error)

	// SendOTP dispatches a one-time code to a canonicalized phone number.
	SendOTP(ctx context.Context, phone string) error

	// VerifyOTP exchanges a received code for a session, provisioning the
	// identity on first sign-in.
	VerifyOTP(ctx context.Context, phone, code string) (*AuthResult, error)

	// OAuthRedirectURL builds the provider redirect entry point. The flow
	// completes out of band; the caller resumes the session with the token
	// presented after redirect-back.
	OAuthRedirectURL(provider, redirectTo string) (string, error)

	// ResetPassword starts a password reset for the given email.
	ResetPassword(ctx context.Context, email string) error

	// CurrentSession resolves a previously issued token. A missing, expired
	// or revoked token yields (nil, nil): no session rather than an error.
	CurrentSession(ctx context.Context, token string) (*domain.Identity, error)

	// FetchProfile loads the portal profile for an identity. A NOT_FOUND
	// error means the profile row has not been provisioned yet.
	FetchProfile(ctx context.Context, identityID string) (*domain.Profile, error)

	// SignOut revokes the token server-side. Best effort; callers treat
	// their local transition as authoritative regardless.
	SignOut(ctx context.Context, token string) error
}
