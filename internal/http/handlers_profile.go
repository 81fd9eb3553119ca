package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/registrylabs/registry-ui-api/internal/domain/auth"
	"github.com/registrylabs/registry-ui-api/internal/domain/model"
	apperrors "github.com/registrylabs/registry-ui-api/internal/errors"
	"github.com/registrylabs/registry-ui-api/internal/service"
)

// ProfileServiceInterface defines the profile operations the handlers
// need.
type ProfileServiceInterface interface {
	Load(ctx context.Context, sess domainauth.Session) (*model.UserRecord, error)
	Update(ctx context.Context, sess domainauth.Session, req model.UpdateUserRequest) (*service.UpdateResult, error)
	Delete(ctx context.Context, sess domainauth.Session) error
}

// ProfileHandlers serves the profile record endpoint.
type ProfileHandlers struct {
	Svc      ProfileServiceInterface
	Sessions *SessionCookies
	Logger   *slog.Logger
}

func (h *ProfileHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Profile dispatches /api/profile by verb. The verb is checked before the
// session: an unknown method gets its 405 even without credentials.
func (h *ProfileHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.load(w, r)
	case http.MethodPut:
		h.update(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		WriteAppError(w, apperrors.MethodNotAllowed(r.Method))
	}
}

// requireSession reconstructs the session or writes the 401. The bool
// reports whether the caller may proceed.
func (h *ProfileHandlers) requireSession(w http.ResponseWriter, r *http.Request) (domainauth.Session, bool) {
	sess, ok := h.Sessions.FromRequest(w, r)
	if !ok {
		WriteAppError(w, apperrors.Unauthorized("Unauthorized"))
		return domainauth.Session{}, false
	}
	return sess, true
}

// load handles GET /api/profile.
func (h *ProfileHandlers) load(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	rec, err := h.Svc.Load(r.Context(), sess)
	if err != nil {
		h.logger().WarnContext(r.Context(), "load profile failed",
			"username", sess.Username, "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": rec})
}

// update handles PUT /api/profile. A local username change invalidates
// the session binding, so the handler immediately re-mints the token for
// the new username and rotates the cookie.
func (h *ProfileHandlers) update(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Update(r.Context(), sess, req)
	if err != nil {
		h.logger().WarnContext(r.Context(), "update profile failed",
			"username", sess.Username, "error", err)
		WriteAppError(w, err)
		return
	}

	if result.UsernameChanged {
		token, mintErr := h.Sessions.Issuer.Mint(&model.UserRecord{
			ID:       sess.ID,
			Username: result.Username,
			Provider: sess.Provider,
		}, false)
		if mintErr != nil {
			h.logger().ErrorContext(r.Context(), "re-mint session token", "error", mintErr)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		h.Sessions.Set(w, r, token)
	}

	body := map[string]any{"user": result.User}
	if sess.IsLocal() {
		body["username"] = result.Username
		body["password"] = result.Password
	}
	WriteJSON(w, http.StatusOK, body)
}

// delete handles DELETE /api/profile.
func (h *ProfileHandlers) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Delete(r.Context(), sess); err != nil {
		h.logger().WarnContext(r.Context(), "delete profile failed",
			"username", sess.Username, "error", err)
		WriteAppError(w, err)
		return
	}

	// The record is gone; the session token must go with it.
	h.Sessions.Clear(w, r)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "User account successfully deleted"})
}
