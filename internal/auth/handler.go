package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/tasktrail/tasktrail/internal/session"
	"github.com/tasktrail/tasktrail/internal/store"
)

// Handler exposes the gateway's HTTP surface. All routes assume the session
// middleware has run; authentication on every request is a session lookup,
// never a credential re-check.
type Handler struct {
	Verifier *LocalVerifier
	OAuth    *OAuth
	Sessions *session.Manager
	Users    store.UserStore

	// ProviderConfigured selects the real redirect flow over the
	// development fallback. The two are mutually exclusive.
	ProviderConfigured bool
}

func NewHandler(verifier *LocalVerifier, oauth *OAuth, sessions *session.Manager, users store.UserStore, providerConfigured bool) *Handler {
	return &Handler{
		Verifier:           verifier,
		OAuth:              oauth,
		Sessions:           sessions,
		Users:              users,
		ProviderConfigured: providerConfigured,
	}
}

// RegisterRoutes mounts the auth endpoints on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	oauthLogin := h.OAuth.HandleDevLogin
	if h.ProviderConfigured {
		oauthLogin = h.OAuth.HandleLogin
	}
	r.HandleFunc("/auth/oauth/login", oauthLogin).Methods(http.MethodGet)
	r.HandleFunc("/auth/oauth/callback", h.OAuth.HandleCallback).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", h.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, NewAuthError(ErrCodeValidation, "Invalid request body", ""))
		return
	}

	user, err := h.Verifier.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	if err := h.Sessions.Establish(r.Context(), user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to establish session")
		writeError(w, http.StatusInternalServerError, NewAuthError(ErrCodeStoreError, "Something went wrong, please retry", ""))
		return
	}

	log.Info().Int64("user_id", user.ID).Msg("local login succeeded")
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) writeLoginError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	switch {
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadRequest, authErr)
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", ""))
	case errors.Is(err, ErrProviderAccountOnly):
		writeError(w, http.StatusUnauthorized, NewAuthError(ErrCodeProviderAccountOnly, "This account uses provider sign-in. Use the provider login instead.", ""))
	default:
		log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, NewAuthError(ErrCodeStoreError, "Something went wrong, please retry", ""))
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var params RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, NewAuthError(ErrCodeValidation, "Invalid request body", ""))
		return
	}

	user, err := h.Verifier.Register(r.Context(), params)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			writeError(w, http.StatusBadRequest, authErr)
			return
		}
		log.Error().Err(err).Msg("registration failed")
		writeError(w, http.StatusInternalServerError, NewAuthError(ErrCodeStoreError, "Something went wrong, please retry", ""))
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.Sessions.AuthenticatedUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, NewAuthError(ErrCodeInvalidCreds, "Not authenticated", ""))
		return
	}

	user, err := h.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Session points at a deleted account; treat as anonymous.
			_ = h.Sessions.Destroy(r.Context())
			writeError(w, http.StatusUnauthorized, NewAuthError(ErrCodeInvalidCreds, "Not authenticated", ""))
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("failed to load session user")
		writeError(w, http.StatusInternalServerError, NewAuthError(ErrCodeStoreError, "Something went wrong, please retry", ""))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Destroying an absent or expired session is fine; logout is idempotent.
	if err := h.Sessions.Destroy(r.Context()); err != nil {
		log.Error().Err(err).Msg("failed to destroy session")
		writeError(w, http.StatusInternalServerError, NewAuthError(ErrCodeStoreError, "Something went wrong, please retry", ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, authErr *AuthError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": authErr.Message,
		"code":    authErr.Code,
		"field":   authErr.Field,
	})
}
