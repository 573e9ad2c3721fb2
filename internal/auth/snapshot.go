package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/clock"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSnapshot = errors.New("invalid or expired session token")

type snapshotClaims struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Snapshotter issues short-lived signed copies of the session user for clients
// that need a synchronous answer without calling back.
type Snapshotter struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewSnapshotter(secret string, ttl time.Duration, clk clock.Clock) *Snapshotter {
	return &Snapshotter{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
	}
}

func (s *Snapshotter) Issue(u User) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := snapshotClaims{
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign snapshot: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Snapshotter) Parse(token string) (*User, error) {
	var claims snapshotClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSnapshot
	}

	u := &User{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}
	if claims.IssuedAt != nil {
		u.IssuedAt = claims.IssuedAt.Time
	}
	return u, nil
}
