// Package auth resolves who is calling: the server-side session, short-lived
// snapshot tokens, the route guard and the login redirect-loop breaker.
package auth

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/clock"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "storefront_session"
	sessionMaxAge = 86400 * 30

	keyUserID   = "uid"
	keyEmail    = "email"
	keyName     = "name"
	keyRole     = "role"
	keyIssuedAt = "iat"
)

// User is the minimal identity record kept in the session.
type User struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
	IssuedAt time.Time  `json:"issued_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == model.RoleAdmin
}

func UserFromProfile(p *model.Profile) User {
	return User{
		ID:    p.ID,
		Email: p.Email,
		Name:  p.FullName,
		Role:  p.Role,
	}
}

type Event string

const (
	EventSignedIn  Event = "signed_in"
	EventSignedOut Event = "signed_out"
)

type Listener func(event Event, user User)

// SessionManager is the single authoritative source of the signed-in user.
type SessionManager struct {
	store sessions.Store
	clock clock.Clock

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	hashKey := sha256.Sum256([]byte("session-hash:" + secret))
	blockKey := sha256.Sum256([]byte("session-block:" + secret))

	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.MaxAge(sessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func NewSessionManager(store sessions.Store, clk clock.Clock) *SessionManager {
	return &SessionManager{
		store:     store,
		clock:     clk,
		listeners: map[int]Listener{},
	}
}

func (m *SessionManager) Store() sessions.Store {
	return m.store
}

// session never fails: an unreadable cookie yields a fresh session.
func (m *SessionManager) session(r *http.Request) *sessions.Session {
	s, err := m.store.Get(r, sessionName)
	if err != nil {
		s, _ = m.store.New(r, sessionName)
	}
	return s
}

func (m *SessionManager) CurrentUser(r *http.Request) (*User, bool) {
	s := m.session(r)

	id, _ := s.Values[keyUserID].(string)
	if id == "" {
		return nil, false
	}

	u := &User{ID: id}
	u.Email, _ = s.Values[keyEmail].(string)
	u.Name, _ = s.Values[keyName].(string)
	role, _ := s.Values[keyRole].(string)
	u.Role = model.Role(role)
	if iat, ok := s.Values[keyIssuedAt].(string); ok {
		u.IssuedAt, _ = time.Parse(time.RFC3339, iat)
	}
	return u, true
}

func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u User) error {
	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}

	u.IssuedAt = m.clock.Now().UTC().Truncate(time.Second)
	s.Values[keyUserID] = u.ID
	s.Values[keyEmail] = u.Email
	s.Values[keyName] = u.Name
	s.Values[keyRole] = string(u.Role)
	s.Values[keyIssuedAt] = u.IssuedAt.Format(time.RFC3339)

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.notify(EventSignedIn, u)
	return nil
}

// SignOut drops every session value, including checkout state.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	prev, signedIn := m.CurrentUser(r)

	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if signedIn {
		m.notify(EventSignedOut, *prev)
	}
	return nil
}

// ClearUser forgets an identity that no longer resolves. Unlike SignOut the
// cookie survives so later values in the same response still reach the client.
func (m *SessionManager) ClearUser(w http.ResponseWriter, r *http.Request) error {
	prev, signedIn := m.CurrentUser(r)
	if !signedIn {
		return nil
	}

	s := m.session(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.notify(EventSignedOut, *prev)
	return nil
}

// OnAuthChange registers fn for sign-in and sign-out events and returns its unsubscribe func.
func (m *SessionManager) OnAuthChange(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *SessionManager) notify(event Event, u User) {
	m.mu.RLock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(event, u)
	}
}

func (m *SessionManager) Value(r *http.Request, key string) string {
	v, _ := m.session(r).Values[key].(string)
	return v
}

func (m *SessionManager) SetValues(w http.ResponseWriter, r *http.Request, values map[string]string) error {
	s := m.session(r)
	for k, v := range values {
		s.Values[k] = v
	}
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *SessionManager) DeleteValues(w http.ResponseWriter, r *http.Request, keys ...string) error {
	s := m.session(r)
	changed := false
	for _, k := range keys {
		if _, ok := s.Values[k]; ok {
			delete(s.Values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
