package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// Handler serves the cart endpoints. Routes require an authenticated session.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers the cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cart", h.load)
	r.Post("/cart/sync", h.sync)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	user, _ := shared.CurrentUser(r.Context())
	items, err := h.store.Load(r.Context(), user.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items, err := Normalize(body.Items)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	user, _ := shared.CurrentUser(r.Context())
	if err := h.store.Save(r.Context(), user.UserID, items); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "cart synced", "items": items})
}
