package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

func routerAs(svc *Service, data shared.SessionData) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "test"}
			sess.SetUser(data)
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	h := NewHandler(nil, svc)
	h.MountCustomer(r)
	h.MountAdmin(r)
	return r
}

func TestHandler_CheckoutAndStatusFlow(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, Deps{})
	customer := routerAs(svc, shared.SessionData{UserID: 3, Role: shared.RoleUser, Name: "Alice"})
	admin := routerAs(svc, shared.SessionData{UserID: 1, Role: shared.RoleAdmin, Name: "Admin"})

	payload := `{"customer_name":"Alice","customer_address":"Jl. Merdeka 1","payment_method":"cod",
		"items":[{"productId":1,"productName":"Siomay","price":15000,"quantity":2}],"total_amount":1}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(payload))
	req.Header.Set(IdempotencyHeader, "")
	rr := httptest.NewRecorder()
	customer.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		TransactionID   int64  `json:"transactionId"`
		TransactionCode string `json:"transactionCode"`
		TotalAmount     string `json:"totalAmount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "40000", created.TotalAmount)
	assert.Regexp(t, `^TRX-\d+-\d{1,3}$`, created.TransactionCode)

	path := "/transactions/" + strconv.FormatInt(created.TransactionID, 10)
	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, path+"/status", bytes.NewBufferString(`{"status":"paid"}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	customer.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var detail Transaction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, StatusPaid, detail.Status)
	require.Len(t, detail.Items, 1)

	stranger := routerAs(svc, shared.SessionData{UserID: 4, Role: shared.RoleUser})
	rr = httptest.NewRecorder()
	stranger.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/recent-transactions", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var summaries []Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, created.TransactionCode, summaries[0].Code)
}

func TestHandler_CheckoutReportsMissingFields(t *testing.T) {
	svc := NewService(newMockRepository(), Deps{})
	customer := routerAs(svc, shared.SessionData{UserID: 3, Role: shared.RoleUser})

	rr := httptest.NewRecorder()
	customer.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{"customer_name":"Alice","items":[]}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error   string          `json:"error"`
		Missing map[string]bool `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, map[string]bool{
		"customer_name":    false,
		"customer_address": true,
		"payment_method":   true,
		"items":            true,
	}, body.Missing)
}

func TestHandler_InvalidStatus(t *testing.T) {
	svc := NewService(newMockRepository(), Deps{})
	admin := routerAs(svc, shared.SessionData{UserID: 1, Role: shared.RoleAdmin})

	rr := httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/transactions/1/status", bytes.NewBufferString(`{"status":"refunded"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	admin.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/transactions/1/status", bytes.NewBufferString(`{"status":"paid"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
