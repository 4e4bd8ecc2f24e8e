// Package reqctx carries the authenticated caller's identity through a
// request's call chain. Go has no ambient per-request storage, so the scope
// rides on the context.Context that every layer already threads: the HTTP
// layer installs a fresh scope per request, the authentication middleware
// writes into it once, and everything downstream (authorization checks, the
// tenant-scoping store middleware) reads from it.
package reqctx

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNoActiveScope is returned when SetAuth is called on a context that
	// was never passed through WithRequestScope. This is a wiring bug, not a
	// user-facing condition; callers should fail loudly.
	ErrNoActiveScope = errors.New("reqctx: no active request scope")

	// ErrAuthAlreadySet is returned when SetAuth is called twice within the
	// same request scope. The authentication middleware is the only writer.
	ErrAuthAlreadySet = errors.New("reqctx: auth context already set")
)

// AuthContext is the resolved identity of the current request's caller.
type AuthContext struct {
	UserID   string
	ClinicID string
	Role     string
	Email    string
}

type scopeKey struct{}

// scope is the mutable per-request holder. One writer (the authentication
// middleware), many readers, possibly on different goroutines spawned by the
// handler, hence the mutex.
type scope struct {
	mu   sync.RWMutex
	auth *AuthContext
}

// WithRequestScope returns a context carrying a fresh, empty request scope.
// Each inbound request gets its own scope; concurrent requests never share
// one.
func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{})
}

// SetAuth records the caller's identity in the active request scope. It must
// be called at most once per request, and only after WithRequestScope.
func SetAuth(ctx context.Context, ac AuthContext) error {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return ErrNoActiveScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth != nil {
		return ErrAuthAlreadySet
	}
	s.auth = &ac
	return nil
}

// AuthFrom returns the identity recorded for the current request. The second
// return value is false when no scope exists or authentication has not run;
// callers must treat that as "unauthenticated", never as an error.
func AuthFrom(ctx context.Context) (AuthContext, bool) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return AuthContext{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return AuthContext{}, false
	}
	return *s.auth, true
}

// ClinicIDFrom returns the current caller's clinic id, or "" when absent.
func ClinicIDFrom(ctx context.Context) string {
	ac, _ := AuthFrom(ctx)
	return ac.ClinicID
}

// UserIDFrom returns the current caller's user id, or "" when absent.
func UserIDFrom(ctx context.Context) string {
	ac, _ := AuthFrom(ctx)
	return ac.UserID
}

// RoleFrom returns the current caller's role, or "" when absent.
func RoleFrom(ctx context.Context) string {
	ac, _ := AuthFrom(ctx)
	return ac.Role
}

// EmailFrom returns the current caller's email, or "" when absent.
func EmailFrom(ctx context.Context) string {
	ac, _ := AuthFrom(ctx)
	return ac.Email
}
