package auth

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	LoopThreshold = 3

	keyLoopTarget = "login_redirect_to"
	keyLoopCount  = "login_redirect_count"
)

// LoopBreaker counts consecutive login visits carrying the same redirectTo.
type LoopBreaker struct {
	sessions *SessionManager
}

func NewLoopBreaker(sessions *SessionManager) *LoopBreaker {
	return &LoopBreaker{sessions: sessions}
}

// SafeRedirect keeps only same-site absolute paths.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}

// Visit records a login visit and reports whether it completes a loop. A completed
// loop resets the counter.
func (b *LoopBreaker) Visit(w http.ResponseWriter, r *http.Request, redirectTo string) (bool, error) {
	count := 1
	if b.sessions.Value(r, keyLoopTarget) == redirectTo {
		prev, _ := strconv.Atoi(b.sessions.Value(r, keyLoopCount))
		count = prev + 1
	}

	if count >= LoopThreshold {
		return true, b.Reset(w, r)
	}

	return false, b.sessions.SetValues(w, r, map[string]string{
		keyLoopTarget: redirectTo,
		keyLoopCount:  strconv.Itoa(count),
	})
}

func (b *LoopBreaker) Count(r *http.Request) int {
	n, _ := strconv.Atoi(b.sessions.Value(r, keyLoopCount))
	return n
}

// Reset clears the counter; it only writes a cookie when a counter exists.
func (b *LoopBreaker) Reset(w http.ResponseWriter, r *http.Request) error {
	return b.sessions.DeleteValues(w, r, keyLoopTarget, keyLoopCount)
}
