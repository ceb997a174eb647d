package checkout

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

// IdempotencyHeader carries an optional client generated checkout key.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes checkout and transaction endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountCustomer registers routes for logged-in users. The caller applies the
// authentication guard.
func (h *Handler) MountCustomer(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Get("/transactions/{id}", h.get)
}

// MountAdmin registers back-office routes. The caller applies the admin guard.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Get("/transactions/recent", h.recent)
	r.Put("/transactions/{id}/status", h.updateStatus)
	r.Get("/admin/recent-transactions", h.recentSummaries)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, _ := shared.CurrentUser(r.Context())
	receipt, err := h.service.Checkout(r.Context(), user.UserID, req, r.Header.Get(IdempotencyHeader))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":         true,
		"message":         "transaction created",
		"transactionId":   receipt.TransactionID,
		"transactionCode": receipt.TransactionCode,
		"subtotal":        receipt.Subtotal,
		"shipping":        receipt.Shipping,
		"totalAmount":     receipt.TotalAmount,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	viewer, _ := shared.CurrentUser(r.Context())
	t, err := h.service.Get(r.Context(), viewer, id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Recent(r.Context(), queryLimit(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) recentSummaries(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Recent(r.Context(), queryLimit(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	out := make([]Summary, len(items))
	for i, t := range items {
		out[i] = t.Summarize()
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor, _ := shared.CurrentUser(r.Context())
	status, err := h.service.UpdateStatus(r.Context(), actor.UserID, id, body.Status)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "transaction status updated to " + string(status),
		"status":  status,
	})
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 50 {
		return defaultRecentLimit
	}
	return limit
}
