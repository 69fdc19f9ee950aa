package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

// Cookie names.
const (
	SessionCookieName  = "session_id"
	LocationCookieName = "location"
)

// locationCookieTTL keeps a registered browser registered for a year.
const locationCookieTTL = 365 * 24 * time.Hour

// Cookies writes the cookies the app owns with consistent attributes.
type Cookies struct {
	Domain string
}

// isSecureRequest reports whether the request arrived over TLS, directly or
// through a proxy that sets X-Forwarded-Proto.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// SetSession writes the session cookie based on the session's expiry.
func (c Cookies) SetSession(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// Clear expires a cookie immediately. It mirrors the attributes used when
// setting cookies so every browser drops it.
func (c Cookies) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetLocation registers the browser for check-in at location.
func (c Cookies) SetLocation(w http.ResponseWriter, r *http.Request, location string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LocationCookieName,
		Value:    url.QueryEscape(location),
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(locationCookieTTL.Seconds()),
	})
}

// Location returns the registered location of the browser, or "".
func Location(r *http.Request) string {
	c, err := r.Cookie(LocationCookieName)
	if err != nil {
		return ""
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}
