package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinrec/clinrec/internal/platform/store"
)

// Model is the store model name for patients; register it as tenant-scoped
// when building the store client.
const Model = "patient"

// ErrNotFound is returned when no patient matches within the caller's clinic.
var ErrNotFound = errors.New("patient: not found")

type storeRepo struct {
	client *store.Client
}

// NewRepo returns a Repository backed by the tenant-scoped store client.
func NewRepo(client *store.Client) Repository {
	return &storeRepo{client: client}
}

func (r *storeRepo) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	// clinic_id is deliberately absent from the payload: the store's tenant
	// scope middleware supplies it from the request scope.
	rows, err := r.client.Do(ctx, &store.Op{
		Model:  Model,
		Action: store.ActionCreate,
		Data: map[string]any{
			"id":         p.ID,
			"mrn":        p.MRN,
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"birth_date": p.BirthDate,
		},
	})
	if err != nil {
		return err
	}
	if len(rows) == 1 {
		return scanPatient(rows[0], p)
	}
	return nil
}

func (r *storeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	rows, err := r.client.Do(ctx, &store.Op{
		Model:  Model,
		Action: store.ActionFindOne,
		Filter: map[string]any{"id": id},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	p := &Patient{}
	if err := scanPatient(rows[0], p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *storeRepo) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.client.Do(ctx, &store.Op{
		Model:  Model,
		Action: store.ActionFindMany,
	})
	if err != nil {
		return nil, err
	}

	patients := make([]*Patient, 0, len(rows))
	for _, row := range rows {
		p := &Patient{}
		if err := scanPatient(row, p); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (r *storeRepo) Update(ctx context.Context, p *Patient) error {
	rows, err := r.client.Do(ctx, &store.Op{
		Model:  Model,
		Action: store.ActionUpdate,
		Filter: map[string]any{"id": p.ID},
		Data: map[string]any{
			"mrn":        p.MRN,
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"birth_date": p.BirthDate,
			"updated_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return scanPatient(rows[0], p)
}

func (r *storeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.client.Do(ctx, &store.Op{
		Model:  Model,
		Action: store.ActionDelete,
		Filter: map[string]any{"id": id},
	})
	return err
}

// scanPatient maps a store row back onto the struct. Column types come back
// from pgx as their natural Go values.
func scanPatient(row map[string]any, p *Patient) error {
	switch id := row["id"].(type) {
	case uuid.UUID:
		p.ID = id
	case [16]byte:
		p.ID = uuid.UUID(id)
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("patient: parse id: %w", err)
		}
		p.ID = parsed
	}

	p.ClinicID, _ = row["clinic_id"].(string)
	p.MRN, _ = row["mrn"].(string)
	p.FirstName, _ = row["first_name"].(string)
	p.LastName, _ = row["last_name"].(string)
	if bd, ok := row["birth_date"].(time.Time); ok {
		p.BirthDate = &bd
	}
	if ca, ok := row["created_at"].(time.Time); ok {
		p.CreatedAt = ca
	}
	if ua, ok := row["updated_at"].(time.Time); ok {
		p.UpdatedAt = ua
	}
	return nil
}
