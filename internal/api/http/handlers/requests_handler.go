package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Rohit5932/consult-smart-portal/internal/api/dto"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
	"github.com/Rohit5932/consult-smart-portal/internal/service"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// RequestsHandler exposes lead/contact submissions.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requests *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

// Create handles POST /requests. Submissions are accepted from anonymous and
// authenticated callers alike; the owner reference is attached when present.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.ServiceRequestCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Service: req.Service,
		Message: req.Message,
	}
	if snapshot := guard.SnapshotFromContext(c); snapshot.State == session.StateAuthenticated && snapshot.Identity != nil {
		ownerID := snapshot.Identity.ID
		input.OwnerID = &ownerID
	}

	request, err := h.requests.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": request})
}

// List handles GET /requests for the admin view.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	requests, err := h.requests.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requests})
}

// ListMine handles GET /requests/mine for the authenticated owner.
func (h *RequestsHandler) ListMine(c *fiber.Ctx) error {
	snapshot := guard.SnapshotFromContext(c)
	if snapshot.State != session.StateAuthenticated || snapshot.Identity == nil {
		return apperrors.NewUnauthorized("sign-in required")
	}
	requests, err := h.requests.ListByOwner(c.UserContext(), snapshot.Identity.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requests})
}

// UpdateStatus handles PATCH /requests/:id/status for admins.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.requests.UpdateStatus(c.UserContext(), c.Params("id"), domain.RequestStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": request})
}
