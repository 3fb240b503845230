package domain

import "time"

// Role enumerates authorization levels derived from a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the external account as the identity service reports it.
// Email may be absent for phone or OAuth identities.
type Identity struct {
	ID          string
	Email       *string
	Phone       *string
	DisplayName *string
	AvatarURL   *string
	CreatedAt   time.Time
}

// Profile carries portal-facing account data, one-to-one with Identity.
type Profile struct {
	ID        string
	Email     *string
	FullName  *string
	AvatarURL *string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultProfile synthesizes the profile used when none has been provisioned
// for an authenticated identity. The session must never be blocked on a
// missing profile row, and the synthesized role is always "user".
func DefaultProfile(identity Identity) *Profile {
	return &Profile{
		ID:        identity.ID,
		Email:     identity.Email,
		FullName:  identity.DisplayName,
		AvatarURL: identity.AvatarURL,
		Role:      RoleUser,
	}
}
