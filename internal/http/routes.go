package httpx

import (
	"log/slog"
	"net/http"

	"github.com/registrylabs/registry-ui-api/internal/session"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Identity     IdentityServiceInterface
	Profile      ProfileServiceInterface
	Issuer       *session.Issuer
	CookieDomain string
	Logger       *slog.Logger // optional
}

// NewRouter creates and configures the HTTP router.
//
// The profile and auth API endpoints are registered without method
// patterns on purpose: the handlers dispatch the verb themselves so a
// wrong verb yields the endpoint's own 405 body instead of the mux
// default, and before any session check.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cookies := &SessionCookies{
		Issuer:       services.Issuer,
		CookieDomain: services.CookieDomain,
	}
	authHandlers := &AuthHandlers{
		Svc:      services.Identity,
		Sessions: cookies,
		Logger:   logger,
	}
	profileHandlers := &ProfileHandlers{
		Svc:      services.Profile,
		Sessions: cookies,
		Logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/profile", profileHandlers.Profile)
	mux.HandleFunc("/api/auth/login", authHandlers.LocalLogin)
	mux.HandleFunc("/api/auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /api/auth/status", authHandlers.Status)
	mux.HandleFunc("GET /auth/login", authHandlers.DelegatedLogin)
	mux.HandleFunc("GET /auth/callback", authHandlers.Callback)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Logging(logger)(Recover(logger)(mux))
}
