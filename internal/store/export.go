package store

import (
	"encoding/json"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// marshalSnapshot serializes records exactly as cached: a JSON array in the
// cache's current order. Serialization failure has no retry path; callers
// treat it as fatal.
func marshalSnapshot(records []domain.TrackedRecord) ([]byte, error) {
	if records == nil {
		records = []domain.TrackedRecord{}
	}
	return json.Marshal(records)
}
