package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrMissingEmailClaim is returned when neither the standard email claim
	// nor the configured custom claim yields a string.
	ErrMissingEmailClaim = errors.New("identity: token has no usable email claim")

	// ErrNoValidRole is returned when the role claim contains no member of
	// the allowed role set and no valid default role is configured.
	ErrNoValidRole = errors.New("identity: token has no valid role")
)

// ResolverConfig configures claim extraction and first-sight provisioning.
type ResolverConfig struct {
	// RoleClaim is the claim holding the caller's role(s); the value may be
	// a single string or a list of strings.
	RoleClaim string
	// EmailClaim is the provider-specific custom claim consulted when the
	// standard "email" claim is absent.
	EmailClaim string
	// DefaultRole is used when the role claim yields nothing usable. It must
	// itself be a member of the allowed set to apply.
	DefaultRole Role
	// DefaultClinicID and DefaultClinicName drive the single-tenant
	// provisioning bootstrap: every first-seen identity is attached to this
	// clinic, created on demand.
	DefaultClinicID   string
	DefaultClinicName string
}

// Resolver maps verified token claims to a local identity, provisioning the
// clinic and user rows on first sight. It is the only place identities are
// minted.
type Resolver struct {
	cfg        ResolverConfig
	clinics    ClinicRepository
	identities IdentityRepository
	logger     zerolog.Logger
}

func NewResolver(cfg ResolverConfig, clinics ClinicRepository, identities IdentityRepository, logger zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg, clinics: clinics, identities: identities, logger: logger}
}

// Resolve turns verified claims into a stored Identity. Role and display name
// are refreshed on every call (last verified token wins); the clinic binding
// of an existing identity is never changed.
func (r *Resolver) Resolve(ctx context.Context, claims map[string]any) (*Identity, error) {
	email, err := r.extractEmail(claims)
	if err != nil {
		return nil, err
	}

	role, err := r.extractRole(claims)
	if err != nil {
		return nil, err
	}

	clinic := &Clinic{ID: r.cfg.DefaultClinicID, Name: r.cfg.DefaultClinicName}
	if err := r.clinics.Upsert(ctx, clinic); err != nil {
		return nil, fmt.Errorf("resolve clinic: %w", err)
	}

	id := &Identity{
		Email:    email,
		Name:     stringClaim(claims, "name"),
		Role:     role,
		ClinicID: clinic.ID,
	}
	if err := r.identities.Upsert(ctx, id); err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	r.logger.Debug().
		Str("email", id.Email).
		Str("role", string(id.Role)).
		Str("clinic_id", id.ClinicID).
		Msg("identity resolved")

	return id, nil
}

// extractEmail reads the standard email claim, falling back to the configured
// custom claim, and lowercases the result.
func (r *Resolver) extractEmail(claims map[string]any) (string, error) {
	email := stringClaim(claims, "email")
	if email == "" && r.cfg.EmailClaim != "" {
		email = stringClaim(claims, r.cfg.EmailClaim)
	}
	if email == "" {
		return "", ErrMissingEmailClaim
	}
	return strings.ToLower(email), nil
}

// extractRole picks the first valid role in claim order. Claim order is the
// tie-break: a token carrying ["NURSE", "ADMIN"] resolves to NURSE.
func (r *Resolver) extractRole(claims map[string]any) (Role, error) {
	for _, candidate := range roleClaimValues(claims[r.cfg.RoleClaim]) {
		if role, ok := ParseRole(candidate); ok {
			return role, nil
		}
	}
	if r.cfg.DefaultRole.Valid() {
		return r.cfg.DefaultRole, nil
	}
	return "", ErrNoValidRole
}

// roleClaimValues normalizes a role claim value, which providers emit either
// as a single string or as a list of strings, preserving source order.
func roleClaimValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}
