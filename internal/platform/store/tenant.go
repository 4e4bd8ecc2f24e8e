package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/platform/reqctx"
)

// ClinicIDField is the column carrying the tenant binding on every
// tenant-scoped model.
const ClinicIDField = "clinic_id"

// TenantScope returns the isolation middleware. For every operation on one of
// the given models it reads the current clinic from the request scope and
// merges it into the operation: into the filter for reads, updates, deletes
// and upserts, into the payload for creates and upserts.
//
// When no clinic is in scope the operation passes through unchanged. That is
// deliberate: background jobs run outside any request. It also means this
// middleware alone is not a security boundary for code paths that never
// establish a request scope.
//
// The rewrite is additive only. A caller-supplied clinic_id that conflicts
// with the scope is an inconsistency in the calling code and fails the
// operation rather than being silently overwritten.
func TenantScope(logger zerolog.Logger, models ...string) Middleware {
	scoped := make(map[string]bool, len(models))
	for _, m := range models {
		scoped[m] = true
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, op *Op) (Rows, error) {
			if !scoped[op.Model] {
				return next(ctx, op)
			}

			clinicID := reqctx.ClinicIDFrom(ctx)
			if clinicID == "" {
				return next(ctx, op)
			}

			var targets []*map[string]any
			switch op.Action {
			case ActionCreate:
				targets = []*map[string]any{&op.Data}
			case ActionUpsert:
				targets = []*map[string]any{&op.Filter, &op.Data}
			default:
				targets = []*map[string]any{&op.Filter}
			}

			for _, target := range targets {
				if err := mergeClinicID(target, clinicID); err != nil {
					logger.Error().
						Err(err).
						Str("model", op.Model).
						Str("action", string(op.Action)).
						Msg("tenant scope conflict")
					return nil, err
				}
			}

			return next(ctx, op)
		}
	}
}

// mergeClinicID adds the clinic binding to m without clobbering other fields.
// Merging the same value twice is a no-op; a different value is an error.
func mergeClinicID(m *map[string]any, clinicID string) error {
	if *m == nil {
		*m = make(map[string]any, 1)
	}
	if existing, ok := (*m)[ClinicIDField]; ok {
		if existing != any(clinicID) {
			return fmt.Errorf("store: clinic_id %v conflicts with request clinic %q", existing, clinicID)
		}
		return nil
	}
	(*m)[ClinicIDField] = clinicID
	return nil
}
