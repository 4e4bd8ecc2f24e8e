package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type clinicRepoPG struct {
	pool *pgxpool.Pool
}

func NewClinicRepo(pool *pgxpool.Pool) ClinicRepository {
	return &clinicRepoPG{pool: pool}
}

func (r *clinicRepoPG) Upsert(ctx context.Context, clinic *Clinic) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clinic (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		RETURNING created_at`,
		clinic.ID, clinic.Name,
	).Scan(&clinic.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert clinic %s: %w", clinic.ID, err)
	}
	return nil
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id string) (*Clinic, error) {
	clinic := &Clinic{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM clinic WHERE id = $1`, id,
	).Scan(&clinic.ID, &clinic.Name, &clinic.CreatedAt)
	if err != nil {
		return nil, err
	}
	return clinic, nil
}

type identityRepoPG struct {
	pool *pgxpool.Pool
}

func NewIdentityRepo(pool *pgxpool.Pool) IdentityRepository {
	return &identityRepoPG{pool: pool}
}

func (r *identityRepoPG) Upsert(ctx context.Context, id *Identity) error {
	if id.ID == uuid.Nil {
		id.ID = uuid.New()
	}

	// The ON CONFLICT arm deliberately does not touch clinic_id: once an
	// identity is bound to a clinic, later tokens cannot move it. RETURNING
	// reflects the surviving row, so the caller always sees the stored id
	// and clinic regardless of who won the insert race.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO app_user (id, email, name, role, clinic_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING id, clinic_id, created_at, updated_at`,
		id.ID, id.Email, id.Name, id.Role, id.ClinicID,
	).Scan(&id.ID, &id.ClinicID, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", id.Email, err)
	}
	return nil
}

func (r *identityRepoPG) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	id := &Identity{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, clinic_id, created_at, updated_at
		FROM app_user WHERE email = $1`, email,
	).Scan(&id.ID, &id.Email, &id.Name, &id.Role, &id.ClinicID, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return id, nil
}
