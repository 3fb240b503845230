package dto

import "time"

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name,omitempty"`
}

// SignInRequest payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPSendRequest payload for requesting a one-time code.
type OTPSendRequest struct {
	Phone string `json:"phone"`
}

// OTPVerifyRequest payload for exchanging a code for a session.
type OTPVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// PasswordResetRequest payload for starting a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for completing a reset.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token                string    `json:"token,omitempty"`
	ExpiresAt            time.Time `json:"expires_at,omitempty"`
	RequiresVerification bool      `json:"requires_verification,omitempty"`
}
