package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// ConfigureOAuth wires goth to the session store and registers the configured
// providers. It returns the enabled provider names.
func ConfigureOAuth(store sessions.Store, baseURL, googleClientID, googleClientSecret string) []string {
	gothic.Store = store

	var enabled []string
	if googleClientID != "" && googleClientSecret != "" {
		callback := strings.TrimRight(baseURL, "/") + "/auth/google/callback"
		goth.UseProviders(google.New(googleClientID, googleClientSecret, callback, "email", "profile"))
		enabled = append(enabled, "google")
	}
	return enabled
}

func ProviderEnabled(name string) bool {
	_, err := goth.GetProvider(name)
	return err == nil
}

// gothic reads the provider from the query string; other params such as state and code are kept.
func withProvider(r *http.Request, provider string) {
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()
}

func BeginOAuth(w http.ResponseWriter, r *http.Request, provider string) {
	withProvider(r, provider)
	gothic.BeginAuthHandler(w, r)
}

func CompleteOAuth(w http.ResponseWriter, r *http.Request, provider string) (goth.User, error) {
	withProvider(r, provider)

	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		return goth.User{}, fmt.Errorf("complete %s auth: %w", provider, err)
	}
	if user.Email == "" {
		return goth.User{}, fmt.Errorf("complete %s auth: provider returned no email", provider)
	}
	_ = gothic.Logout(w, r)

	return user, nil
}
