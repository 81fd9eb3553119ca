package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	"github.com/registrylabs/registry-ui-api/internal/ports"
	"github.com/registrylabs/registry-ui-api/internal/service"
)

// IdentityServiceInterface defines the identity operations the auth
// handlers need.
type IdentityServiceInterface interface {
	LocalLogin(ctx context.Context, in service.LocalLoginInput) (*service.LoginResult, error)
	BeginDelegated(ctx context.Context, redirectURL string) (*service.BeginDelegatedResult, error)
	CompleteDelegated(ctx context.Context, in ports.ExchangeInput) (*service.LoginResult, error)
}

// AuthHandlers provides HTTP handlers for both login protocols plus
// logout and the session status probe.
type AuthHandlers struct {
	Svc      IdentityServiceInterface
	Sessions *SessionCookies
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// localLoginRequest is the body of POST /api/auth/login.
type localLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LocalLogin handles the local username/password protocol.
// POST /api/auth/login. Any other verb gets a 405 before anything else is
// looked at.
func (h *AuthHandlers) LocalLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteAppError(w, apperrors.MethodNotAllowed(r.Method))
		return
	}

	var req localLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.LocalLogin(r.Context(), service.LocalLoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "local login failed",
			"username", req.Username, "error", err)
		WriteAppError(w, err)
		return
	}

	token, err := h.Sessions.Issuer.Mint(result.User, result.IsNew)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "mint session token", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.Sessions.Set(w, r, token)

	WriteJSON(w, http.StatusOK, map[string]any{
		"user":  result.User.View(domainauth.PolicyFor(result.User.Provider)),
		"isNew": result.IsNew,
	})
}

// DelegatedLogin starts the delegated flow.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) DelegatedLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = "/"
	}
	redirectURI = safeRedirectPath(redirectURI)

	result, err := h.Svc.BeginDelegated(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin delegated login", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{
		State:       result.State,
		Nonce:       result.Nonce,
		RedirectURI: redirectURI,
	})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the delegated flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, http.StatusBadRequest, "Authorization code is required")
		return
	}
	if state == "" {
		WriteError(w, http.StatusBadRequest, "State parameter is required")
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, http.StatusBadRequest, "Invalid or missing state parameter")
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing nonce parameter")
		return
	}

	result, err := h.Svc.CompleteDelegated(r.Context(), ports.ExchangeInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete delegated login", "error", err)
		WriteAppError(w, err)
		return
	}

	token, err := h.Sessions.Issuer.Mint(result.User, result.IsNew)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "mint session token", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.Sessions.Set(w, r, token)
	clearCookie(w, r, "oauth_state", h.Sessions.CookieDomain)
	clearCookie(w, r, "oauth_nonce", h.Sessions.CookieDomain)

	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// Logout drops the session on the client. The token itself cannot be
// revoked; it simply stops being presented.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteAppError(w, apperrors.MethodNotAllowed(r.Method))
		return
	}

	h.Sessions.Clear(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status returns the current authentication status.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.Sessions.FromRequest(w, r)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          sess,
	})
}

// oauthCookieParams groups values needed to set the OAuth flow cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect
// in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := isSecureRequest(r)
	cd := h.Sessions.CookieDomain

	for _, c := range []struct {
		name  string
		value string
	}{
		{"oauth_state", p.State},
		{"oauth_nonce", p.Nonce},
		{"post_login_redirect", p.RedirectURI},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     "/",
			Domain:   cd,
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600, // 10 minutes
		})
	}
}

// postLoginRedirect returns the post-login redirect URL and clears the
// cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		clearCookie(w, r, "post_login_redirect", h.Sessions.CookieDomain)
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin
// relative path starting with "/" and not an absolute URL. Returns "/"
// when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
