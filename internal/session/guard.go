// Package session owns the single live session of a console client. The
// guard is the only writer of the token; every other component receives the
// token as an explicit parameter and must treat it as read-only.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/vescom/vescom-api/internal/model"
)

// State of the session guard.
type State int

const (
	// Anonymous: no token, protected operations unavailable.
	Anonymous State = iota
	// Hydrating: a stored token exists and is being resolved to an admin
	// profile. Protected operations are not yet available.
	Hydrating
	// Authenticated: the token resolved to an active admin.
	Authenticated
	// Invalid: the last hydration attempt failed hard (transport error);
	// distinct from Anonymous so callers can surface a retry action.
	Invalid
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "Anonymous"
	case Hydrating:
		return "Hydrating"
	case Authenticated:
		return "Authenticated"
	case Invalid:
		return "Invalid"
	}
	return "Unknown"
}

// ErrNotAuthenticated is returned by Token when no authenticated session
// exists. Protected calls gate on it and fail immediately; there is no
// silent re-authentication anywhere.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Resolver turns a stored token into the owning admin profile, typically by
// calling GET /v1/auth/admins/me. An authorization failure must be returned
// as-is so the guard can clear the token.
type Resolver func(ctx context.Context, token string) (model.Admin, error)

// Guard is the process-scoped session state machine. Exactly one live
// session exists per client context: a new login overwrites the previous
// token, logout and any authorization failure clear it.
type Guard struct {
	mu    sync.Mutex
	state State
	token string
	admin model.Admin
}

// New builds a guard. A non-empty stored token starts the guard in
// Hydrating; callers should follow up with Hydrate before issuing
// protected calls.
func New(storedToken string) *Guard {
	g := &Guard{}
	if storedToken != "" {
		g.state = Hydrating
		g.token = storedToken
	}
	return g
}

// Hydrate resolves the stored token to an admin profile. On success the
// guard becomes Authenticated. A rejection clears the token and returns
// the guard to Anonymous; a transport failure moves it to Invalid with the
// token kept, and a later Hydrate call retries. In any other state Hydrate
// is a no-op.
func (g *Guard) Hydrate(ctx context.Context, resolve Resolver) error {
	g.mu.Lock()
	if g.state != Hydrating && g.state != Invalid {
		g.mu.Unlock()
		return nil
	}
	g.state = Hydrating
	token := g.token
	g.mu.Unlock()

	admin, err := resolve(ctx, token)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Hydrating || g.token != token {
		// A login or logout raced the hydration; its outcome wins.
		return nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Transport failure, not a rejection: the token may still be
			// good. Keep it so the caller can offer a retry.
			g.state = Invalid
			return err
		}
		g.state = Anonymous
		g.token = ""
		g.admin = model.Admin{}
		return err
	}
	g.state = Authenticated
	g.admin = admin
	return nil
}

// Login stores a freshly issued token, overwriting any previous session.
func (g *Guard) Login(token string, admin model.Admin) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Authenticated
	g.token = token
	g.admin = admin
}

// Logout clears the session.
func (g *Guard) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

// Invalidate tears the session down after an authorization failure from any
// protected call. Which call triggered it does not matter: the token is
// gone and pending operations fail without retry.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearLocked()
}

func (g *Guard) clearLocked() {
	g.state = Anonymous
	g.token = ""
	g.admin = model.Admin{}
}

// Token returns the live token, or ErrNotAuthenticated when the guard is in
// any state but Authenticated.
func (g *Guard) Token() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticated {
		return "", ErrNotAuthenticated
	}
	return g.token, nil
}

// State reports the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Admin returns the authenticated admin profile and whether one exists.
func (g *Guard) Admin() (model.Admin, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admin, g.state == Authenticated
}
