package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
)

// State is the outcome of resolving a caller against a route requirement.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateChecking        State = "checking"
	StateAuthenticated   State = "authenticated"
	StateForbidden       State = "forbidden"
)

type Requirement int

const (
	RequireUser Requirement = iota
	RequireAdmin
)

// ErrUnknownUser is returned by a UserLookup when the identity no longer exists.
var ErrUnknownUser = errors.New("unknown user")

// UserLookup loads the current record for an identity so role changes and deletions apply immediately.
type UserLookup func(ctx context.Context, userID string) (*User, error)

type Resolution struct {
	State State
	User  *User
	Err   error
}

// Decide is the guard's transition function.
func Decide(identified bool, lookupErr error, role model.Role, need Requirement) State {
	switch {
	case !identified:
		return StateUnauthenticated
	case errors.Is(lookupErr, ErrUnknownUser):
		return StateUnauthenticated
	case lookupErr != nil:
		return StateChecking
	case need == RequireAdmin && role != model.RoleAdmin:
		return StateForbidden
	}
	return StateAuthenticated
}

type Guard struct {
	sessions  *SessionManager
	snapshots *Snapshotter
	lookup    UserLookup
}

func NewGuard(sessions *SessionManager, snapshots *Snapshotter, lookup UserLookup) *Guard {
	return &Guard{
		sessions:  sessions,
		snapshots: snapshots,
		lookup:    lookup,
	}
}

// Identify returns the caller from the session cookie, falling back to a bearer snapshot token.
func (g *Guard) Identify(r *http.Request) (*User, bool) {
	if u, ok := g.sessions.CurrentUser(r); ok {
		return u, true
	}

	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	u, err := g.snapshots.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, false
	}
	return u, true
}

func (g *Guard) Resolve(r *http.Request, need Requirement) Resolution {
	identity, ok := g.Identify(r)
	if !ok {
		return Resolution{State: Decide(false, nil, "", need)}
	}

	current, err := g.lookup(r.Context(), identity.ID)
	if err != nil {
		return Resolution{State: Decide(true, err, "", need), Err: err}
	}
	current.IssuedAt = identity.IssuedAt

	return Resolution{
		State: Decide(true, nil, current.Role, need),
		User:  current,
	}
}
