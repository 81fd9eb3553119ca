package httpx

import (
	"net/http"
	"strings"
	"time"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/session"
)

// sessionCookieName carries the signed session token. The token is the
// only server-trusted session state; the cookie just transports it.
const sessionCookieName = "session_token"

// SessionCookies reads and writes the session token cookie and drives the
// one-shot isNew rotation: when reconstruction yields a replacement token,
// the replacement is immediately re-set on the response.
type SessionCookies struct {
	Issuer       *session.Issuer
	CookieDomain string
}

// FromRequest reconstructs the session from the request cookie. A missing
// or invalid token yields ok=false. When the token was rotated (consuming
// the isNew flag), the rotated token is set on the response before
// returning.
func (c *SessionCookies) FromRequest(w http.ResponseWriter, r *http.Request) (domainauth.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return domainauth.Session{}, false
	}
	sess, rotated, ok := c.Issuer.Reconstruct(cookie.Value)
	if !ok {
		return domainauth.Session{}, false
	}
	if rotated != "" {
		c.Set(w, r, rotated)
	}
	return sess, true
}

// Set writes the session token cookie.
func (c *SessionCookies) Set(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.Issuer.TTL().Seconds()),
	})
}

// Clear expires the session token cookie on the client. There is nothing
// to revoke server-side.
func (c *SessionCookies) Clear(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, sessionCookieName, c.CookieDomain)
}

// clearCookie clears a cookie by setting it to expire immediately. It
// mirrors key attributes (Secure, Path, Domain, SameSite) used when
// setting cookies to maximize compatibility across browsers during
// deletion.
func clearCookie(w http.ResponseWriter, r *http.Request, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
