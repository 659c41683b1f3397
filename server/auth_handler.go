package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"Audiotheque/logger"
	"Audiotheque/model"

	"github.com/google/uuid"
)

type tokenResponse struct {
	Token       string     `json:"token"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Role        model.Role `json:"role"`
}

// safeReturnTo only accepts paths on this site.
func safeReturnTo(v string) string {
	if v == "" || !strings.HasPrefix(v, "/") || strings.HasPrefix(v, "//") || strings.Contains(v, "\\") {
		return "/"
	}
	return v
}

// HandleGoogleLogin redirects to the consent screen with a fresh state.
func (h *APIHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil || !h.identity.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google oauth not configured")
		return
	}

	state := uuid.NewString()
	returnTo := safeReturnTo(r.URL.Query().Get("returnTo"))
	if err := h.states.Save(r.Context(), state, returnTo); err != nil {
		logger.Error("Failed to save oauth state", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.Redirect(w, r, h.identity.AuthCodeURL(state), http.StatusFound)
}

// HandleGoogleCallback finishes sign-in and hands the session token to the
// web app in the URL fragment, or as JSON when mode=json.
func (h *APIHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil || !h.identity.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google oauth not configured")
		return
	}

	q := r.URL.Query()
	if errStr := q.Get("error"); errStr != "" {
		writeError(w, http.StatusBadRequest, "google error: "+errStr)
		return
	}

	returnTo, ok, err := h.states.Consume(r.Context(), q.Get("state"))
	if err != nil {
		logger.Error("Failed to read oauth state", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	ident, err := h.identity.Exchange(r.Context(), code)
	if err != nil {
		logger.Warn("Google exchange failed", logger.ErrorField(err))
		writeError(w, http.StatusBadGateway, "google sign-in failed")
		return
	}

	rl := h.roles.Resolve(ident.Email)
	if h.users != nil {
		if _, err := h.users.UpsertOnLogin(r.Context(), ident.Email, ident.DisplayName, rl); err != nil {
			logger.Warn("Failed to record sign-in", logger.String("email", ident.Email), logger.ErrorField(err))
		}
	}

	token, expires, err := h.tokens.Issue(ident.Email, ident.DisplayName, rl)
	if err != nil {
		logger.Error("Failed to issue token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	logger.Info("User signed in", logger.String("email", ident.Email), logger.String("role", rl.String()))

	if q.Get("mode") == "json" {
		writeJSON(w, http.StatusOK, tokenResponse{
			Token:       token,
			ExpiresAt:   expires,
			Email:       ident.Email,
			DisplayName: ident.DisplayName,
			Role:        rl,
		})
		return
	}

	target, err := url.Parse(strings.TrimRight(h.cfg.FrontendURL, "/") + safeReturnTo(returnTo))
	if err != nil {
		target = &url.URL{Path: "/"}
	}
	fragment := url.Values{}
	fragment.Set("token", token)
	target.Fragment = fragment.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// HandleLogout is stateless; the client drops its token.
func (h *APIHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
