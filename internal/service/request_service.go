package service

import (
	"context"
	"strings"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/repository"
	"github.com/Rohit5932/consult-smart-portal/internal/validate"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// RequestService coordinates lead/contact submissions from the public site
// and their admin workflow.
type RequestService struct {
	requests           repository.ServiceRequestRepository
	defaultCountryCode string
}

// RequestCreateInput describes a submission. OwnerID is nil for anonymous
// submitters.
type RequestCreateInput struct {
	OwnerID *string
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

// NewRequestService constructs the service.
func NewRequestService(requests repository.ServiceRequestRepository, defaultCountryCode string) *RequestService {
	return &RequestService{requests: requests, defaultCountryCode: defaultCountryCode}
}

// Create validates and persists a submission. Anonymous and authenticated
// actors are both accepted.
func (s *RequestService) Create(ctx context.Context, input RequestCreateInput) (*domain.ServiceRequest, error) {
	name := strings.TrimSpace(input.Name)
	serviceName := strings.TrimSpace(input.Service)
	if name == "" || serviceName == "" {
		return nil, apperrors.NewValidationError("name and service are required", nil)
	}
	email, err := validate.Email(input.Email)
	if err != nil {
		return nil, err
	}
	phone := ""
	if strings.TrimSpace(input.Phone) != "" {
		phone, err = validate.Phone(input.Phone, s.defaultCountryCode)
		if err != nil {
			return nil, err
		}
	}

	request := &domain.ServiceRequest{
		OwnerID: input.OwnerID,
		Name:    name,
		Email:   email,
		Phone:   phone,
		Service: serviceName,
		Message: strings.TrimSpace(input.Message),
		Status:  domain.RequestStatusNew,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.FromRemote("request create", err)
	}
	return request, nil
}

// List returns submissions for the admin view, newest first.
func (s *RequestService) List(ctx context.Context, limit, offset int) ([]domain.ServiceRequest, error) {
	requests, err := s.requests.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.FromRemote("request list", err)
	}
	return requests, nil
}

// ListByOwner returns the caller's own submissions.
func (s *RequestService) ListByOwner(ctx context.Context, ownerID string) ([]domain.ServiceRequest, error) {
	requests, err := s.requests.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.FromRemote("request list", err)
	}
	return requests, nil
}

// UpdateStatus moves a submission through its lattice. Illegal transitions
// fail validation and leave the record unchanged.
func (s *RequestService) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.ServiceRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromRemote("request lookup", err)
	}
	if !domain.CanTransitionRequest(request.Status, status) {
		return nil, apperrors.NewValidationError("illegal status transition", map[string]any{
			"from": string(request.Status), "to": string(status),
		})
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.FromRemote("request update", err)
	}
	request.Status = status
	return request, nil
}
