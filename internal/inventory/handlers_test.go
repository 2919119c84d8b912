package inventory_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newRouter(repo *stubRepo) http.Handler {
	svc := inventory.NewService(inventory.ServiceConfig{Repository: repo, TaxBps: 1100})
	h := inventory.NewHandler(inventory.HandlerConfig{Service: svc})
	r := chi.NewRouter()
	r.Route("/api/v1/products", h.Routes)
	r.Get("/api/v1/inventory/summary", h.Summary)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProductHandlersLifecycle(t *testing.T) {
	repo := newStubRepo()
	router := newRouter(repo)

	rec := do(t, router, http.MethodPost, "/api/v1/products",
		`{"code":"PROD001","name":"Laptop Gaming","category":"Elektronik","price":15000000,"stock":10,"minStock":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/products",
		`{"code":"PROD001","name":"Laptop Gaming","category":"Elektronik","price":15000000,"stock":10,"minStock":5}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "CONFLICT", decodeError(t, rec).Error.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/products/PROD001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data inventory.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Laptop Gaming", got.Data.Name)
	require.True(t, got.Data.Active)

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD001/stock/out", `{"quantity":15}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "INSUFFICIENT_STOCK", decodeError(t, rec).Error.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD001/stock/out", `{"quantity":7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 3, got.Data.Stock)

	rec = do(t, router, http.MethodGet, "/api/v1/products/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []inventory.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	rec = do(t, router, http.MethodDelete, "/api/v1/products/PROD001", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "STOCK_REMAINING", decodeError(t, rec).Error.Code)

	rec = do(t, router, http.MethodPut, "/api/v1/products/PROD001/stock", `{"stock":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/products/out-of-stock", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	rec = do(t, router, http.MethodDelete, "/api/v1/products/PROD001", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/products/PROD001", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestProductHandlersValidation(t *testing.T) {
	router := newRouter(newStubRepo(inventory.NewProduct("PROD001", "Laptop", "Elektronik", 1000, 10, 5)))

	rec := do(t, router, http.MethodPost, "/api/v1/products", `{"code":"P","name":"ab","price":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeError(t, rec)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	require.Contains(t, env.Error.Details["fields"], "code")

	rec = do(t, router, http.MethodPost, "/api/v1/products", `{"code":"PROD9","unknown":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", decodeError(t, rec).Error.Code)

	rec = do(t, router, http.MethodPut, "/api/v1/products/PROD001/stock", `{"stock":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD001/stock/in", `{"quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD001/quote", `{"quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_ARGUMENT", decodeError(t, rec).Error.Code)
}

func TestProductHandlersInactive(t *testing.T) {
	router := newRouter(newStubRepo())
	rec := do(t, router, http.MethodPost, "/api/v1/products",
		`{"code":"PROD002","name":"Keyboard","category":"Elektronik","price":300000,"stock":3,"minStock":1,"active":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD002/stock/in", `{"quantity":5}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "PRODUCT_INACTIVE", decodeError(t, rec).Error.Code)
}

func TestProductHandlersSearchQuoteAndSummary(t *testing.T) {
	router := newRouter(newStubRepo(
		inventory.NewProduct("PROD001", "Laptop Gaming", "Elektronik", 1000, 200, 5),
		inventory.NewProduct("PROD002", "Mouse", "Elektronik", 500, 1, 2),
		inventory.NewProduct("PROD003", "Kopi", "Makanan", 100, 0, 2),
	))

	var list struct {
		Data []inventory.Product `json:"data"`
	}
	rec := do(t, router, http.MethodGet, "/api/v1/products?name=LAPTOP", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	rec = do(t, router, http.MethodGet, "/api/v1/products?category=elektronik", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)

	rec = do(t, router, http.MethodGet, "/api/v1/products?name=tidak-ada", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/products/PROD001/quote", `{"quantity":10,"customerType":"regular"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote struct {
		Data pricing.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Equal(t, pricing.TierModerate, quote.Data.Tier)
	require.InDelta(t, 9435, quote.Data.Total, 1e-9)

	rec = do(t, router, http.MethodGet, "/api/v1/inventory/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Data inventory.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, inventory.Summary{
		Products:       3,
		ActiveProducts: 3,
		TotalStock:     201,
		TotalValue:     200_500,
		LowStock:       1,
		OutOfStock:     1,
	}, summary.Data)
}

func TestHandlerWithoutService(t *testing.T) {
	h := inventory.NewHandler(inventory.HandlerConfig{})
	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/summary", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
