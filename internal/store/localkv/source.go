// Package localkv is the degraded-mode record source: the full collection
// for a kind lives as one JSON blob under a string key in redis. It mirrors
// the browser-storage fallback of demo deployments and is selected only when
// no database is configured; it never silently masks database write
// failures, because it is never combined with the postgres source.
package localkv

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/store"
)

const keyPrefix = "portal:records:"

type source struct {
	client *redis.Client
}

// NewSource builds a redis-blob-backed record source.
func NewSource(client *redis.Client) store.Source {
	return &source{client: client}
}

func (s *source) List(ctx context.Context, kind domain.RecordKind) ([]domain.TrackedRecord, error) {
	records, err := s.read(ctx, kind)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *source) Insert(ctx context.Context, record *domain.TrackedRecord) error {
	records, err := s.read(ctx, record.Kind)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record.ID = uuid.NewString()
	record.CreatedAt = now
	record.UpdatedAt = now
	records = append(records, *record)
	return s.write(ctx, record.Kind, records)
}

func (s *source) UpdateStatus(ctx context.Context, kind domain.RecordKind, id string, status domain.RecordStatus) error {
	records, err := s.read(ctx, kind)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records[i].Status = status
			records[i].UpdatedAt = time.Now().UTC()
			return s.write(ctx, kind, records)
		}
	}
	return pgx.ErrNoRows
}

func (s *source) read(ctx context.Context, kind domain.RecordKind) ([]domain.TrackedRecord, error) {
	raw, err := s.client.Get(ctx, keyPrefix+string(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var records []domain.TrackedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *source) write(ctx context.Context, kind domain.RecordKind, records []domain.TrackedRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+string(kind), raw, 0).Err()
}
