package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// IdentityRepository encapsulates identity persistence for the built-in
// identity provider.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity, passwordHash *string) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Identity, error)
	PasswordHashByEmail(ctx context.Context, email string) (string, string, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type identityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository instantiates repository.
func NewIdentityRepository(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepository{pool: pool}
}

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity, passwordHash *string) error {
	const query = `
        INSERT INTO identities (email, phone, display_name, avatar_url, password_hash)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		identity.Email,
		identity.Phone,
		identity.DisplayName,
		identity.AvatarURL,
		passwordHash,
	).Scan(&identity.ID, &identity.CreatedAt)
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `
        SELECT id, email, phone, display_name, avatar_url, created_at
        FROM identities WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const query = `
        SELECT id, email, phone, display_name, avatar_url, created_at
        FROM identities WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *identityRepository) GetByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	const query = `
        SELECT id, email, phone, display_name, avatar_url, created_at
        FROM identities WHERE phone=$1`
	return r.fetchSingle(ctx, query, phone)
}

func (r *identityRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	var identity domain.Identity
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&identity.ID,
		&identity.Email,
		&identity.Phone,
		&identity.DisplayName,
		&identity.AvatarURL,
		&identity.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) PasswordHashByEmail(ctx context.Context, email string) (string, string, error) {
	const query = `SELECT id, COALESCE(password_hash, '') FROM identities WHERE email=$1`
	var id, hash string
	if err := r.pool.QueryRow(ctx, query, email).Scan(&id, &hash); err != nil {
		return "", "", err
	}
	return id, hash, nil
}

func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE identities SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
