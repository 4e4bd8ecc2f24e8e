package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for patients. All
// implementations must route through the tenant-scoped store client so that
// every operation is clinic-bound.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}
