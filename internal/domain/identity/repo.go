package identity

import (
	"context"
)

// ClinicRepository defines the persistence interface for clinics.
type ClinicRepository interface {
	// Upsert creates the clinic if absent, otherwise refreshes its name.
	// It must be atomic; concurrent calls for the same id may not produce
	// duplicates.
	Upsert(ctx context.Context, clinic *Clinic) error
	GetByID(ctx context.Context, id string) (*Clinic, error)
}

// IdentityRepository defines the persistence interface for identities.
type IdentityRepository interface {
	// Upsert creates the identity if the email is unseen, otherwise updates
	// role and display name in place, leaving the clinic unchanged. The
	// stored row (including its id and clinic) is written back into id.
	// Atomicity is backed by the unique email constraint; concurrent
	// first-sight calls for the same email resolve to a single row.
	Upsert(ctx context.Context, id *Identity) error
	GetByEmail(ctx context.Context, email string) (*Identity, error)
}
