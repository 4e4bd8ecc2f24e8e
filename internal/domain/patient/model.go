package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. ClinicID is the tenant binding; it is
// injected by the store's tenant scope middleware, never set by handlers.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	ClinicID  string     `db:"clinic_id" json:"clinic_id"`
	MRN       string     `db:"mrn" json:"mrn"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
