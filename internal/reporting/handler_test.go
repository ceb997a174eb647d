package reporting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/shared"
)

type fakeDocuments struct {
	lastReport  Report
	lastInvoice Invoice
}

func (f *fakeDocuments) ReportPDF(_ context.Context, r Report) ([]byte, error) {
	f.lastReport = r
	return []byte("%PDF-report"), nil
}

func (f *fakeDocuments) ReportXLSX(r Report) ([]byte, error) {
	f.lastReport = r
	return []byte("PK-xlsx"), nil
}

func (f *fakeDocuments) InvoicePDF(_ context.Context, inv Invoice) ([]byte, error) {
	f.lastInvoice = inv
	return []byte("%PDF-invoice"), nil
}

func newRouter(svc *Service, docs Documents, viewer shared.SessionData) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "test"}
			sess.SetUser(viewer)
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h := NewHandler(nil, svc, docs)
	h.MountAdmin(r)
	h.MountCustomer(r)
	return r
}

func TestHandler_ReportFormats(t *testing.T) {
	created := time.Now()
	repo := &stubRepo{products: []Row{{Label: "PRD-1", Description: "Siomay", Date: &created, Amount: decimal.NewFromInt(15000)}}}
	docs := &fakeDocuments{}
	router := newRouter(NewService(repo, nil, nil, nil), docs, shared.SessionData{UserID: 1, Role: shared.RoleAdmin})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/generate-report?type=products&period=all", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, contentTypePDF, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "laporan-products-all.pdf")
	assert.Equal(t, "15000", docs.lastReport.GrandTotal.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/generate-report?type=products&format=xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, contentTypeXLSX, rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/generate-report?type=products&format=doc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/generate-report?type=sales&period=week", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Stats(t *testing.T) {
	router := newRouter(NewService(&stubRepo{}, nil, nil, nil), &fakeDocuments{}, shared.SessionData{UserID: 1, Role: shared.RoleAdmin})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total_transactions":3,"total_revenue":"40000","total_products":4,"total_users":2}`, rr.Body.String())
}

func TestHandler_InvoiceAccess(t *testing.T) {
	owner := int64(7)
	tx := checkout.Transaction{ID: 11, UserID: &owner, Code: "TRX-9-9", TotalAmount: decimal.NewFromInt(25000), Status: checkout.StatusPending}
	svc := NewService(&stubRepo{}, stubTransactions{tx: tx}, nil, nil)
	docs := &fakeDocuments{}

	rr := httptest.NewRecorder()
	newRouter(svc, docs, shared.SessionData{UserID: 7, Role: shared.RoleUser}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate-pdf/11", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "invoice-TRX-9-9.pdf")
	assert.Equal(t, "PENDING", docs.lastInvoice.StatusLabel)

	rr = httptest.NewRecorder()
	newRouter(svc, docs, shared.SessionData{UserID: 8, Role: shared.RoleUser}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate-pdf/11", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	newRouter(svc, docs, shared.SessionData{UserID: 7, Role: shared.RoleUser}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate-pdf/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
