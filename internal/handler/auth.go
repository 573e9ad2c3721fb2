package handler

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

const oauthRedirectKey = "oauth_redirect_to"

// forcedNavigation replaces the login page in history so the back button
// cannot re-enter the loop.
var forcedNavigation = template.Must(template.New("forced").Parse(`
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8">
		<title>Redirecting</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				text-align: center;
				margin-top: 80px;
			}
		</style>
	</head>
	<body>
		<h2>Taking you back</h2>
		<p>If nothing happens, <a href="{{.}}">continue here</a>.</p>

		<script>
			window.location.replace({{.}});
		</script>
	</body>
	</html>
`))

type loginState struct {
	State      auth.State `json:"state"`
	RedirectTo string     `json:"redirect_to"`
	Providers  []string   `json:"providers"`
}

type signedIn struct {
	User       auth.User `json:"user"`
	RedirectTo string    `json:"redirect_to"`
}

type AuthHandler struct {
	userService service.UserService
	sessions    *auth.SessionManager
	snapshots   *auth.Snapshotter
	guard       *auth.Guard
	loop        *auth.LoopBreaker
	providers   []string
	logger      *slog.Logger
}

func NewAuthHandler(
	userService service.UserService,
	sessions *auth.SessionManager,
	snapshots *auth.Snapshotter,
	guard *auth.Guard,
	loop *auth.LoopBreaker,
	providers []string,
	logger *slog.Logger,
) *AuthHandler {
	if providers == nil {
		providers = []string{}
	}
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		snapshots:   snapshots,
		guard:       guard,
		loop:        loop,
		providers:   providers,
		logger:      logger,
	}
}

// Login is the login entry point. Signed-in visitors go straight to their
// target; the third consecutive visit for the same target navigates there
// with a full page load instead of bouncing again.
func (h *AuthHandler) Login(c echo.Context) error {
	target := auth.SafeRedirect(c.QueryParam("redirectTo"))

	res := h.guard.Resolve(c.Request(), auth.RequireUser)
	switch res.State {
	case auth.StateAuthenticated:
		return c.Redirect(http.StatusFound, target)
	case auth.StateUnauthenticated:
		// a deleted account keeps its cookie until someone clears it
		if err := h.sessions.ClearUser(c.Response(), c.Request()); err != nil {
			return err
		}
	}

	forced, err := h.loop.Visit(c.Response(), c.Request(), target)
	if err != nil {
		return err
	}

	if forced {
		h.logger.Warn("login redirect loop broken", "redirect_to", target)

		var buf bytes.Buffer
		if err := forcedNavigation.Execute(&buf, target); err != nil {
			return err
		}
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}

	return c.JSON(http.StatusOK, loginState{
		State:      res.State,
		RedirectTo: target,
		Providers:  h.providers,
	})
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.SignUp(ctx, req)
	if err != nil {
		return err
	}

	user := auth.UserFromProfile(profile)
	if err := h.sessions.SignIn(c.Response(), c.Request(), user); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, signedIn{
		User:       user,
		RedirectTo: auth.SafeRedirect(c.QueryParam("redirectTo")),
	})
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignInRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.SignIn(ctx, req)
	if err != nil {
		return err
	}

	user := auth.UserFromProfile(profile)
	if err := h.sessions.SignIn(c.Response(), c.Request(), user); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, signedIn{
		User:       user,
		RedirectTo: auth.SafeRedirect(c.QueryParam("redirectTo")),
	})
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Response(), c.Request()); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) BeginOAuth(c echo.Context) error {
	provider := c.Param("provider")
	if !auth.ProviderEnabled(provider) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown login provider")
	}

	target := auth.SafeRedirect(c.QueryParam("redirectTo"))
	if err := h.sessions.SetValues(c.Response(), c.Request(), map[string]string{oauthRedirectKey: target}); err != nil {
		return err
	}

	auth.BeginOAuth(c.Response(), c.Request(), provider)
	return nil
}

func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()

	provider := c.Param("provider")
	if !auth.ProviderEnabled(provider) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown login provider")
	}

	gu, err := auth.CompleteOAuth(c.Response(), c.Request(), provider)
	if err != nil {
		h.logger.Warn("oauth callback failed", "provider", provider, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "login with "+provider+" failed")
	}

	name := gu.Name
	if name == "" {
		name = strings.TrimSpace(gu.FirstName + " " + gu.LastName)
	}

	profile, err := h.userService.UpsertOAuth(ctx, provider, gu.Email, name, gu.AvatarURL)
	if err != nil {
		return err
	}

	target := auth.SafeRedirect(h.sessions.Value(c.Request(), oauthRedirectKey))
	if err := h.sessions.SignIn(c.Response(), c.Request(), auth.UserFromProfile(profile)); err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, target)
}

// Session returns the current user with a short-lived signed token that API
// clients may cache and send back as a bearer token.
func (h *AuthHandler) Session(c echo.Context) error {
	res := h.guard.Resolve(c.Request(), auth.RequireUser)

	switch res.State {
	case auth.StateAuthenticated:
	case auth.StateChecking:
		h.logger.Warn("session lookup failed", "error", res.Err)
		return c.JSON(http.StatusServiceUnavailable, dto.SessionResponse{State: res.State})
	default:
		return c.JSON(http.StatusOK, dto.SessionResponse{State: res.State})
	}

	token, expiresAt, err := h.snapshots.Issue(*res.User)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.SessionResponse{
		State:     res.State,
		User:      res.User,
		Token:     token,
		ExpiresAt: &expiresAt,
	})
}
