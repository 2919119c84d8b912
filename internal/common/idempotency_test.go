package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-inventaris/internal/common"
)

func newIdem(t *testing.T) (*miniredis.Miniredis, common.Idem) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, common.Idem{R: client, TTL: time.Hour}
}

func request(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(common.IdempotencyHeader, key)
	}
	return req
}

func TestIdemRejectsReplay(t *testing.T) {
	mr, idem := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD001/stock/out", "k1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD001/stock/out", "k1"))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")

	// same key on another product is a different request
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD002/stock/out", "k1"))
	require.Equal(t, http.StatusOK, rec.Code)

	// requests without a key are not tracked
	h.ServeHTTP(httptest.NewRecorder(), request("/api/v1/products/PROD001/stock/out", ""))
	h.ServeHTTP(httptest.NewRecorder(), request("/api/v1/products/PROD001/stock/out", ""))
	require.Equal(t, 4, calls)

	key := idem.Key(request("/api/v1/products/PROD001/stock/out", "k1"))
	require.Equal(t, time.Hour, mr.TTL(key))
}

func TestIdemReleasesKeyOnServerError(t *testing.T) {
	_, idem := newIdem(t)
	status := http.StatusInternalServerError
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD001/stock/in", "retry-me"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	status = http.StatusOK
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD001/stock/in", "retry-me"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIdemStoreUnavailable(t *testing.T) {
	mr, idem := newIdem(t)
	mr.Close()
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request("/api/v1/products/PROD001/stock/in", "k"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
