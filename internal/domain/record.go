package domain

import (
	"fmt"
	"time"
)

// RecordKind enumerates the tracked collections in the portal.
type RecordKind string

const (
	KindAppointment RecordKind = "appointment"
	KindDocument    RecordKind = "document"
	KindPayment     RecordKind = "payment"
)

// Kinds lists every tracked record kind.
func Kinds() []RecordKind {
	return []RecordKind{KindAppointment, KindDocument, KindPayment}
}

// ParseKind validates a kind string from an external caller.
func ParseKind(s string) (RecordKind, error) {
	switch RecordKind(s) {
	case KindAppointment, KindDocument, KindPayment:
		return RecordKind(s), nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// RecordStatus is a kind-specific lifecycle state.
type RecordStatus string

const (
	AppointmentScheduled RecordStatus = "scheduled"
	AppointmentCompleted RecordStatus = "completed"
	AppointmentCancelled RecordStatus = "cancelled"

	DocumentPending    RecordStatus = "pending"
	DocumentProcessing RecordStatus = "processing"
	DocumentCompleted  RecordStatus = "completed"

	PaymentPendingVerification RecordStatus = "pending_verification"
	PaymentVerified            RecordStatus = "verified"
	PaymentRejected            RecordStatus = "rejected"
)

// transitions defines the forward-only status lattice per kind. A status
// missing from the inner map is terminal.
var transitions = map[RecordKind]map[RecordStatus][]RecordStatus{
	KindAppointment: {
		AppointmentScheduled: {AppointmentCompleted, AppointmentCancelled},
	},
	KindDocument: {
		DocumentPending:    {DocumentProcessing},
		DocumentProcessing: {DocumentCompleted},
	},
	KindPayment: {
		PaymentPendingVerification: {PaymentVerified, PaymentRejected},
	},
}

var initialStatus = map[RecordKind]RecordStatus{
	KindAppointment: AppointmentScheduled,
	KindDocument:    DocumentPending,
	KindPayment:     PaymentPendingVerification,
}

// InitialStatus returns the status newly created records of this kind carry.
func (k RecordKind) InitialStatus() RecordStatus {
	return initialStatus[k]
}

// ValidStatus reports whether s belongs to this kind's lattice at all.
func (k RecordKind) ValidStatus(s RecordStatus) bool {
	if s == initialStatus[k] {
		return true
	}
	for _, targets := range transitions[k] {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	_, ok := transitions[k][s]
	return ok
}

// CanTransition reports whether from -> to is a defined forward edge.
// There are no backward edges and terminal states admit no successors.
func (k RecordKind) CanTransition(from, to RecordStatus) bool {
	for _, t := range transitions[k][from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transition for this kind.
func (k RecordKind) Terminal(s RecordStatus) bool {
	return len(transitions[k][s]) == 0
}

// AppointmentDetails holds appointment-specific fields.
type AppointmentDetails struct {
	Service      string    `json:"service"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Notes        string    `json:"notes,omitempty"`
}

// DocumentDetails holds document-specific fields.
type DocumentDetails struct {
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	Category string `json:"category,omitempty"`
}

// PaymentDetails holds payment-specific fields. Amount is in the smallest
// currency unit.
type PaymentDetails struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Reference string `json:"reference,omitempty"`
}

// TrackedRecord is the aggregate held by the per-kind stores. Exactly one of
// the detail pointers matching Kind is set. OwnerID is nil for records created
// by anonymous form submissions. Records are never hard-deleted; they only
// move forward through their status lattice.
type TrackedRecord struct {
	ID          string              `json:"id"`
	OwnerID     *string             `json:"owner_id,omitempty"`
	Kind        RecordKind          `json:"kind"`
	Status      RecordStatus        `json:"status"`
	Appointment *AppointmentDetails `json:"appointment,omitempty"`
	Document    *DocumentDetails    `json:"document,omitempty"`
	Payment     *PaymentDetails     `json:"payment,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Validate checks the kind/detail pairing.
func (r *TrackedRecord) Validate() error {
	switch r.Kind {
	case KindAppointment:
		if r.Appointment == nil || r.Document != nil || r.Payment != nil {
			return fmt.Errorf("appointment record requires appointment details only")
		}
	case KindDocument:
		if r.Document == nil || r.Appointment != nil || r.Payment != nil {
			return fmt.Errorf("document record requires document details only")
		}
	case KindPayment:
		if r.Payment == nil || r.Appointment != nil || r.Document != nil {
			return fmt.Errorf("payment record requires payment details only")
		}
	default:
		return fmt.Errorf("unknown record kind %q", r.Kind)
	}
	if !r.Kind.ValidStatus(r.Status) {
		return fmt.Errorf("status %q not valid for kind %q", r.Status, r.Kind)
	}
	return nil
}
