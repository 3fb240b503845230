package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
)

func authenticated(role domain.Role) session.Snapshot {
	ident := domain.Identity{ID: "id-1"}
	return session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &ident,
		Profile:  &domain.Profile{ID: "id-1", Role: role},
	}
}

func TestDecide(t *testing.T) {
	pendingProfile := session.Snapshot{
		State:          session.StateAuthenticated,
		Identity:       &domain.Identity{ID: "id-1"},
		ProfilePending: true,
	}

	cases := []struct {
		name     string
		snapshot session.Snapshot
		role     domain.Role
		want     guard.Decision
	}{
		{
			name:     "unknown session holds loading",
			snapshot: session.Snapshot{State: session.StateUnknown, Loading: true},
			want:     guard.Decision{Action: guard.ShowLoading},
		},
		{
			name:     "authenticating holds loading",
			snapshot: session.Snapshot{State: session.StateAuthenticating, Loading: true},
			want:     guard.Decision{Action: guard.ShowLoading},
		},
		{
			name:     "anonymous redirects to sign-in",
			snapshot: session.Snapshot{State: session.StateAnonymous},
			want:     guard.Decision{Action: guard.Redirect, Target: guard.SignInPath},
		},
		{
			name:     "anonymous redirects to sign-in even when role required",
			snapshot: session.Snapshot{State: session.StateAnonymous},
			role:     domain.RoleAdmin,
			want:     guard.Decision{Action: guard.Redirect, Target: guard.SignInPath},
		},
		{
			name:     "authenticated renders without role requirement",
			snapshot: authenticated(domain.RoleUser),
			want:     guard.Decision{Action: guard.Render},
		},
		{
			name:     "pending profile renders when no role required",
			snapshot: pendingProfile,
			want:     guard.Decision{Action: guard.Render},
		},
		{
			name:     "pending profile holds loading when role required",
			snapshot: pendingProfile,
			role:     domain.RoleAdmin,
			want:     guard.Decision{Action: guard.ShowLoading},
		},
		{
			name:     "admin requirement met renders",
			snapshot: authenticated(domain.RoleAdmin),
			role:     domain.RoleAdmin,
			want:     guard.Decision{Action: guard.Render},
		},
		{
			name:     "insufficient role redirects to portal not sign-in",
			snapshot: authenticated(domain.RoleUser),
			role:     domain.RoleAdmin,
			want:     guard.Decision{Action: guard.Redirect, Target: guard.PortalPath},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, guard.Decide(tc.snapshot, tc.role))
		})
	}
}
