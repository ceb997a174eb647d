package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessionManager: sessions}
}

// MountRoutes registers auth routes on provided router. The login route is
// wrapped with loginLimiter when given.
func (h *Handler) MountRoutes(r chi.Router, loginLimiter func(http.Handler) http.Handler) {
	r.Post("/register", h.handleRegister)
	if loginLimiter != nil {
		r.With(loginLimiter).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
	r.Get("/auth/check", h.handleCheck)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "registration successful",
		"userId":  user.ID,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(shared.SessionData{UserID: user.ID, Role: user.Role, Name: user.Name})

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user.Public(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessionManager.Destroy(shared.SessionFromContext(r.Context()))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	data, ok := shared.CurrentUser(r.Context())
	if !ok {
		httpx.JSON(w, http.StatusOK, SessionStatus{Authenticated: false})
		return
	}
	httpx.JSON(w, http.StatusOK, SessionStatus{
		Authenticated: true,
		User:          &PublicUser{ID: data.UserID, Name: data.Name, Role: data.Role},
	})
}
