package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Rohit5932/consult-smart-portal/internal/api/dto"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/service"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// ProfilesHandler exposes admin profile management.
type ProfilesHandler struct {
	profiles *service.ProfileService
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profiles *service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// Get handles GET /admin/profiles/:id.
func (h *ProfilesHandler) Get(c *fiber.Ctx) error {
	profile, err := h.profiles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}

// UpdateRole handles PATCH /admin/profiles/:id/role. The promoted caller's
// next session resolve picks the new role up; no token reissue is needed.
func (h *ProfilesHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.RoleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	profile, err := h.profiles.SetRole(c.UserContext(), c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profile})
}
