package service

import (
	"context"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/repository"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// ProfileService exposes the admin-side profile operations. Regular callers
// never mutate profiles directly; their rows are provisioned at sign-up and
// the role field only changes through SetRole.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get loads one profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRemote("profile lookup", err)
	}
	return profile, nil
}

// SetRole changes a profile's authorization level. This is the only
// promotion path in the system; there is no secondary admin flag anywhere.
func (s *ProfileService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}
	if err := s.profiles.SetRole(ctx, id, role); err != nil {
		return nil, apperrors.FromRemote("role update", err)
	}
	return s.Get(ctx, id)
}
