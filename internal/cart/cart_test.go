package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestNormalize_MergesDuplicateProducts(t *testing.T) {
	items, err := Normalize([]json.RawMessage{
		json.RawMessage(`{"id": 1, "name": "Siomay", "price": 15000, "quantity": 1}`),
		json.RawMessage(`{"productId": "1", "productName": "Siomay", "price": "15000", "quantity": 2}`),
		json.RawMessage(`{"id": 2, "name": "Hakau", "price": 18000, "quantity": 1}`),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)

	_, err = Normalize([]json.RawMessage{json.RawMessage(`{"id": 1}`)})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRedisStore_SaveLoadClear(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	items, err := store.Load(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.Save(ctx, 9, []Item{{ProductID: 1, Name: "Siomay", Quantity: 2}}))
	assert.Equal(t, time.Hour, mr.TTL("cart:9"))

	items, err = store.Load(ctx, 9)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Siomay", items[0].Name)

	require.NoError(t, store.Save(ctx, 9, nil))
	assert.False(t, mr.Exists("cart:9"))
}

func TestHandler_SyncThenLoad(t *testing.T) {
	store, _ := newStore(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := &shared.Session{ID: "s"}
			sess.SetUser(shared.SessionData{UserID: 5, Role: shared.RoleUser})
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	NewHandler(nil, store).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/sync",
		bytes.NewBufferString(`{"items":[{"id":1,"name":"Siomay","price":15000,"quantity":2}]}`)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.Equal(t, "15000", body.Items[0].Price.String())
}
