// Package guard decides, per protected view, whether to render, redirect or
// hold on a loading placeholder. The decision is a pure function of the
// session snapshot and the required role.
package guard

import (
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
)

// Action enumerates guard outcomes.
type Action int

const (
	// ShowLoading renders a placeholder; no redirect is issued.
	ShowLoading Action = iota
	// Redirect sends the caller to Decision.Target, discarding the pending
	// render.
	Redirect
	// Render lets the protected children render.
	Render
)

// Default navigation targets.
const (
	SignInPath = "/signin"
	PortalPath = "/portal"
)

// Decision is the guard outcome for one (snapshot, requiredRole) pair.
type Decision struct {
	Action Action
	Target string
}

// Decide applies the gating rules. requiredRole == "" means any
// authenticated identity suffices.
//
//   - Unknown or loading sessions hold on the placeholder.
//   - Anonymous sessions redirect to sign-in.
//   - Authenticated sessions with the profile still pending keep the
//     placeholder when a role is required; a missing profile must not be
//     read as non-admin.
//   - An insufficient role redirects to the default authenticated landing
//     view, never to sign-in: the identity is valid, only authorization is
//     short.
func Decide(snapshot session.Snapshot, requiredRole domain.Role) Decision {
	if snapshot.State == session.StateUnknown || snapshot.Loading {
		return Decision{Action: ShowLoading}
	}
	if snapshot.State != session.StateAuthenticated {
		return Decision{Action: Redirect, Target: SignInPath}
	}
	if requiredRole == "" {
		return Decision{Action: Render}
	}
	if snapshot.ProfilePending || snapshot.Profile == nil {
		return Decision{Action: ShowLoading}
	}
	if snapshot.Profile.Role != requiredRole {
		return Decision{Action: Redirect, Target: PortalPath}
	}
	return Decision{Action: Render}
}
