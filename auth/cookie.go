package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookieName is the cookie name for the session token
	SessionCookieName = "session"
	// LegacyCookieName is an older cookie name still accepted on requests
	LegacyCookieName = "auth_token"
)

// SetSessionCookie stores the session token in an HttpOnly cookie expiring with the session
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest extracts a session token from the Authorization header,
// falling back to the session cookies
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	for _, name := range []string{SessionCookieName, LegacyCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// IsSecureURL reports whether cookies for baseURL should carry the Secure flag
func IsSecureURL(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https")
}
