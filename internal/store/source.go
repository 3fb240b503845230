package store

import (
	"context"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// Source is the backend data service a store reconciles against: a generic
// row store with ordered select-all, insert and update-by-id.
type Source interface {
	// List returns the full collection for the kind, newest first.
	List(ctx context.Context, kind domain.RecordKind) ([]domain.TrackedRecord, error)
	// Insert persists a new record, filling server-assigned fields.
	Insert(ctx context.Context, record *domain.TrackedRecord) error
	// UpdateStatus updates exactly one record's status. A missing id yields
	// a NOT_FOUND error.
	UpdateStatus(ctx context.Context, kind domain.RecordKind, id string, status domain.RecordStatus) error
}
