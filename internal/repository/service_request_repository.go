package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// ServiceRequestRepository encapsulates lead/contact submission persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, limit, offset int) ([]domain.ServiceRequest, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error
}

type serviceRequestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &serviceRequestRepository{pool: pool}
}

func (r *serviceRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (owner_id, name, email, phone, service, message, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.OwnerID,
		request.Name,
		request.Email,
		request.Phone,
		request.Service,
		request.Message,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	const query = `
        SELECT id, owner_id, name, email, phone, service, message, status, created_at, updated_at
        FROM service_requests WHERE id=$1`
	var request domain.ServiceRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.OwnerID,
		&request.Name,
		&request.Email,
		&request.Phone,
		&request.Service,
		&request.Message,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, limit, offset int) ([]domain.ServiceRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, owner_id, name, email, phone, service, message, status, created_at, updated_at
        FROM service_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *serviceRequestRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.ServiceRequest, error) {
	const query = `
        SELECT id, owner_id, name, email, phone, service, message, status, created_at, updated_at
        FROM service_requests WHERE owner_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *serviceRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	const query = `UPDATE service_requests SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var request domain.ServiceRequest
		if err := rows.Scan(
			&request.ID,
			&request.OwnerID,
			&request.Name,
			&request.Email,
			&request.Phone,
			&request.Service,
			&request.Message,
			&request.Status,
			&request.CreatedAt,
			&request.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
