package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// ProfileRepository encapsulates profile persistence.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
	SetRole(ctx context.Context, id string, role domain.Role) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, email, full_name, avatar_url, role, created_at, updated_at
        FROM profiles WHERE id=$1`
	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (id, email, full_name, avatar_url, role)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET
            email=EXCLUDED.email,
            full_name=EXCLUDED.full_name,
            avatar_url=EXCLUDED.avatar_url,
            updated_at=NOW()
        RETURNING created_at, updated_at`
	if profile.Role == "" {
		profile.Role = domain.RoleUser
	}
	return r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		profile.AvatarURL,
		profile.Role,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	const query = `UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, role, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
