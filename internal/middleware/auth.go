// Package middleware guards routes: session/bearer resolution, API keys and
// the login loop counter reset.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"

	"github.com/labstack/echo/v4"
)

const (
	userKey   = "auth_user"
	loginPath = "/auth/login"
)

// CurrentUser returns the user resolved by Require, or nil on public routes.
func CurrentUser(c echo.Context) *auth.User {
	u, _ := c.Get(userKey).(*auth.User)
	return u
}

// LoginURL is where an unauthenticated visitor of target is sent.
func LoginURL(target string) string {
	return loginPath + "?redirectTo=" + url.QueryEscape(auth.SafeRedirect(target))
}

// Require admits callers that satisfy need. The user is re-read from the
// profile store on every request so role changes apply immediately.
func Require(guard *auth.Guard, need auth.Requirement, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := guard.Resolve(c.Request(), need)

			switch res.State {
			case auth.StateAuthenticated:
				c.Set(userKey, res.User)
				return next(c)

			case auth.StateForbidden:
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "admin access required",
					"state": string(res.State),
				})

			case auth.StateChecking:
				logger.Warn("auth lookup failed", "path", c.Path(), "error", res.Err)
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error": "unable to verify session, retry shortly",
					"state": string(res.State),
				})
			}

			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":    "authentication required",
				"state":    string(res.State),
				"redirect": LoginURL(c.Request().URL.RequestURI()),
			})
		}
	}
}

func sameKey(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// APIKey requires the anon or role key on /api requests when an anon key is configured.
func APIKey(anonKey, roleKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if anonKey == "" {
				return next(c)
			}

			key := c.Request().Header.Get("apikey")
			if sameKey(key, anonKey) || (roleKey != "" && sameKey(key, roleKey)) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
		}
	}
}

// ServiceRole admits trusted backend callers presenting the role key as a bearer token.
func ServiceRole(roleKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if roleKey == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service role not configured")
			}

			token, found := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if !found || !sameKey(strings.TrimSpace(token), roleKey) {
				return echo.NewHTTPError(http.StatusUnauthorized, "service role required")
			}
			return next(c)
		}
	}
}

// ResetLoop clears the login visit counter whenever a page other than the login
// page is served. Rejected requests keep it: a 401 is how the loop comes back.
func ResetLoop(loop *auth.LoopBreaker, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.Method == http.MethodGet && r.URL.Path != loginPath && loop.Count(r) > 0 {
				res := c.Response()
				res.Before(func() {
					if res.Status >= http.StatusBadRequest {
						return
					}
					if err := loop.Reset(res, r); err != nil {
						logger.Warn("reset login loop", "error", err)
					}
				})
			}
			return next(c)
		}
	}
}
