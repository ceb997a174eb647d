package reporting

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Documents renders reports and invoices into downloadable files.
type Documents interface {
	ReportPDF(ctx context.Context, report Report) ([]byte, error)
	ReportXLSX(report Report) ([]byte, error)
	InvoicePDF(ctx context.Context, invoice Invoice) ([]byte, error)
}

// Handler exposes reporting endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	documents Documents
}

// NewHandler creates a Handler.
func NewHandler(logger *slog.Logger, service *Service, documents Documents) *Handler {
	return &Handler{logger: logger, service: service, documents: documents}
}

// MountAdmin registers routes that require the admin role.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/admin/stats", h.stats)
	r.Get("/admin/generate-report", h.report)
}

// MountCustomer registers routes available to the transaction owner.
func (h *Handler) MountCustomer(r chi.Router) {
	r.Get("/generate-pdf/{id}", h.invoice)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.service.GenerateReport(r.Context(), q.Get("type"), q.Get("period"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	switch strings.ToLower(q.Get("format")) {
	case "xlsx":
		data, err := h.documents.ReportXLSX(report)
		if err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
		httpx.Attachment(w, contentTypeXLSX, report.Filename()+".xlsx", data)
	case "", "pdf":
		data, err := h.documents.ReportPDF(r.Context(), report)
		if err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
		httpx.Attachment(w, contentTypePDF, report.Filename()+".pdf", data)
	default:
		httpx.Error(w, http.StatusBadRequest, "format must be pdf or xlsx")
	}
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	viewer, _ := shared.CurrentUser(r.Context())
	invoice, err := h.service.GenerateInvoice(r.Context(), viewer, id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	data, err := h.documents.InvoicePDF(r.Context(), invoice)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Attachment(w, contentTypePDF, invoice.Filename()+".pdf", data)
}
