package domain

import "time"

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusNew        RequestStatus = "new"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusClosed     RequestStatus = "closed"
)

// CanTransitionRequest reports whether a service request may move from -> to.
// The lattice is new -> in_progress -> closed, with closed terminal.
func CanTransitionRequest(from, to RequestStatus) bool {
	switch from {
	case RequestStatusNew:
		return to == RequestStatusInProgress || to == RequestStatusClosed
	case RequestStatusInProgress:
		return to == RequestStatusClosed
	}
	return false
}

// ServiceRequest is a lead or contact submission from the public site.
// OwnerID is nil when the submitter was anonymous.
type ServiceRequest struct {
	ID        string
	OwnerID   *string
	Name      string
	Email     string
	Phone     string
	Service   string
	Message   string
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
