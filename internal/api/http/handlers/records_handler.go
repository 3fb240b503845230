package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Rohit5932/consult-smart-portal/internal/api/dto"
	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
	"github.com/Rohit5932/consult-smart-portal/internal/store"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// RecordsHandler exposes the tracked-record stores over HTTP. One shared
// store instance per kind backs every caller, so all views of a collection
// stay convergent.
type RecordsHandler struct {
	stores map[domain.RecordKind]*store.Store
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(stores map[domain.RecordKind]*store.Store) *RecordsHandler {
	return &RecordsHandler{stores: stores}
}

// List handles GET /portal/:kind. Admins see the full collection; everyone
// else sees their own records only.
func (h *RecordsHandler) List(c *fiber.Ctx) error {
	st, snapshot, err := h.storeAndSession(c)
	if err != nil {
		return err
	}

	records, err := st.Load(c.UserContext())
	if err != nil {
		// Stale cache retained; surface the failure alongside whatever the
		// cache still holds.
		return err
	}
	if !isAdmin(snapshot) {
		records = ownedBy(records, snapshot.Identity.ID)
	}
	return c.JSON(fiber.Map{"data": records, "stale": st.Stale()})
}

// Create handles POST /portal/:kind.
func (h *RecordsHandler) Create(c *fiber.Ctx) error {
	st, snapshot, err := h.storeAndSession(c)
	if err != nil {
		return err
	}

	ownerID := snapshot.Identity.ID
	record := &domain.TrackedRecord{OwnerID: &ownerID}
	switch st.Kind() {
	case domain.KindAppointment:
		var req dto.AppointmentCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		if req.Service == "" || req.ScheduledFor.IsZero() {
			return apperrors.NewValidationError("service and scheduled_for required", nil)
		}
		record.Appointment = &domain.AppointmentDetails{
			Service:      req.Service,
			ScheduledFor: req.ScheduledFor,
			Notes:        req.Notes,
		}
	case domain.KindDocument:
		var req dto.DocumentCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		if req.Title == "" || req.FileName == "" {
			return apperrors.NewValidationError("title and file_name required", nil)
		}
		record.Document = &domain.DocumentDetails{
			Title:    req.Title,
			FileName: req.FileName,
			Category: req.Category,
		}
	case domain.KindPayment:
		var req dto.PaymentCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		if req.Amount <= 0 || req.Method == "" {
			return apperrors.NewValidationError("positive amount and method required", nil)
		}
		currency := req.Currency
		if currency == "" {
			currency = "INR"
		}
		record.Payment = &domain.PaymentDetails{
			Amount:    req.Amount,
			Currency:  currency,
			Method:    req.Method,
			Reference: req.Reference,
		}
	}

	if err := st.Create(c.UserContext(), record); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": record})
}

// UpdateStatus handles PATCH /portal/:kind/:id/status. Admins may apply any
// lattice-legal transition; owners may only cancel their own scheduled
// appointments.
func (h *RecordsHandler) UpdateStatus(c *fiber.Ctx) error {
	st, snapshot, err := h.storeAndSession(c)
	if err != nil {
		return err
	}

	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	id := c.Params("id")
	newStatus := domain.RecordStatus(req.Status)

	if !isAdmin(snapshot) {
		if st.Kind() != domain.KindAppointment || newStatus != domain.AppointmentCancelled {
			return apperrors.NewForbidden("admin role required")
		}
		if !ownsRecord(st, id, snapshot.Identity.ID) {
			return apperrors.NewForbidden("not the record owner")
		}
	}

	if err := st.UpdateStatus(c.UserContext(), id, newStatus); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "status": string(newStatus)}})
}

// Export handles GET /portal/:kind/export: the current local cache as a
// downloadable JSON artifact. No fresh fetch is made.
func (h *RecordsHandler) Export(c *fiber.Ctx) error {
	st, _, err := h.storeAndSession(c)
	if err != nil {
		return err
	}

	blob, err := st.ExportSnapshot()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	filename := st.ExportFileName(time.Now())
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(blob)
}

func (h *RecordsHandler) storeAndSession(c *fiber.Ctx) (*store.Store, session.Snapshot, error) {
	kind, err := domain.ParseKind(c.Params("kind"))
	if err != nil {
		return nil, session.Snapshot{}, apperrors.NewValidationError(err.Error(), nil)
	}
	st, ok := h.stores[kind]
	if !ok {
		return nil, session.Snapshot{}, apperrors.NewNotFound("collection", nil)
	}
	snapshot := guard.SnapshotFromContext(c)
	if snapshot.State != session.StateAuthenticated || snapshot.Identity == nil {
		return nil, session.Snapshot{}, apperrors.NewUnauthorized("sign-in required")
	}
	return st, snapshot, nil
}

func isAdmin(snapshot session.Snapshot) bool {
	return snapshot.Profile != nil && snapshot.Profile.Role == domain.RoleAdmin
}

func ownedBy(records []domain.TrackedRecord, ownerID string) []domain.TrackedRecord {
	out := make([]domain.TrackedRecord, 0, len(records))
	for _, record := range records {
		if record.OwnerID != nil && *record.OwnerID == ownerID {
			out = append(out, record)
		}
	}
	return out
}

func ownsRecord(st *store.Store, id, ownerID string) bool {
	for _, record := range st.Records() {
		if record.ID == id {
			return record.OwnerID != nil && *record.OwnerID == ownerID
		}
	}
	return false
}
