package inventory

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-inventaris/internal/common"
	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/obs"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
)

// Handler exposes inventory endpoints.
type Handler struct {
	service *Service
	history events.History
}

// HandlerConfig configures the Handler dependencies. History is optional.
type HandlerConfig struct {
	Service *Service
	History events.History
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, history: cfg.History}
}

// Routes mounts the product endpoints on r, which is expected to live at /api/v1/products.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/low-stock", h.LowStock)
	r.Get("/out-of-stock", h.OutOfStock)
	r.Route("/{code}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/stock", h.SetStock)
		r.Post("/stock/in", h.StockIn)
		r.Post("/stock/out", h.StockOut)
		r.Post("/quote", h.Quote)
		r.Get("/events", h.Events)
	})
}

type productPayload struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	MinStock int     `json:"minStock"`
	Active   *bool   `json:"active,omitempty"`
}

type stockPayload struct {
	Stock int `json:"stock"`
}

type quantityPayload struct {
	Quantity int `json:"quantity"`
}

type quotePayload struct {
	Quantity     int    `json:"quantity"`
	CustomerType string `json:"customerType"`
}

// List handles GET /api/v1/products with optional name or category filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	query := r.URL.Query()
	var (
		products []Product
		err      error
	)
	switch {
	case strings.TrimSpace(query.Get("name")) != "":
		products, err = h.service.FindByName(r.Context(), query.Get("name"))
	case strings.TrimSpace(query.Get("category")) != "":
		products, err = h.service.FindByCategory(r.Context(), query.Get("category"))
	default:
		products, err = h.service.ListProducts(r.Context())
	}
	h.respondList(w, products, err)
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload productPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p := NewProduct(payload.Code, payload.Name, payload.Category, payload.Price, payload.Stock, payload.MinStock)
	if payload.Active != nil {
		p.Active = *payload.Active
	}
	if err := h.service.AddProduct(r.Context(), p); err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, p)
}

// Get handles GET /api/v1/products/{code}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	p, err := h.service.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Events handles GET /api/v1/products/{code}/events?limit=N, newest first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if h.history == nil {
		common.JSONError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "event history not configured", nil)
		return
	}
	code := chi.URLParam(r, "code")
	if _, err := h.service.FindByCode(r.Context(), code); err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be between 1 and 200", nil)
		return
	}
	list, err := h.history.RecentEvents(r.Context(), code, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if list == nil {
		list = []events.Event{}
	}
	common.Data(w, http.StatusOK, list)
}

// Delete handles DELETE /api/v1/products/{code}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.RemoveProduct(r.Context(), chi.URLParam(r, "code")); err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStock handles PUT /api/v1/products/{code}/stock.
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload stockPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.UpdateStock(r.Context(), chi.URLParam(r, "code"), payload.Stock)
	h.respondProduct(w, p, err)
}

// StockIn handles POST /api/v1/products/{code}/stock/in.
func (h *Handler) StockIn(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload quantityPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.StockIn(r.Context(), chi.URLParam(r, "code"), payload.Quantity)
	h.respondProduct(w, p, err)
}

// StockOut handles POST /api/v1/products/{code}/stock/out.
func (h *Handler) StockOut(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload quantityPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.StockOut(r.Context(), chi.URLParam(r, "code"), payload.Quantity)
	h.respondProduct(w, p, err)
}

// Quote handles POST /api/v1/products/{code}/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload quotePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := h.service.Quote(r.Context(), chi.URLParam(r, "code"), payload.Quantity, payload.CustomerType)
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	obs.ObserveDiscountQuote(string(summary.Tier), pricing.Segment(payload.CustomerType))
	common.Data(w, http.StatusOK, summary)
}

// LowStock handles GET /api/v1/products/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	products, err := h.service.LowStockProducts(r.Context())
	h.respondList(w, products, err)
}

// OutOfStock handles GET /api/v1/products/out-of-stock.
func (h *Handler) OutOfStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	products, err := h.service.OutOfStockProducts(r.Context())
	h.respondList(w, products, err)
}

// Summary handles GET /api/v1/inventory/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	common.Data(w, http.StatusOK, summary)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) respondProduct(w http.ResponseWriter, p Product, err error) {
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	common.Data(w, http.StatusOK, p)
}

func (h *Handler) respondList(w http.ResponseWriter, products []Product, err error) {
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	if products == nil {
		products = []Product{}
	}
	common.Data(w, http.StatusOK, products)
}

// AsAppError converts inventory errors into API errors.
func AsAppError(err error) error {
	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr):
		appErr := common.NewAppError("VALIDATION_FAILED", fieldErr.Err.Error(), http.StatusBadRequest, err)
		appErr.Details = map[string]any{"fields": fieldErr.Fields}
		return appErr
	case errors.Is(err, ErrInvalidProduct),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrInvalidStock),
		errors.Is(err, ErrInvalidQuantity):
		return common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, ErrProductNotFound):
		return common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
	case errors.Is(err, ErrProductExists):
		return common.NewAppError("CONFLICT", "product already exists", http.StatusConflict, err)
	case errors.Is(err, ErrProductInactive):
		return common.NewAppError("PRODUCT_INACTIVE", "product is inactive", http.StatusConflict, err)
	case errors.Is(err, ErrInsufficientStock):
		return common.NewAppError("INSUFFICIENT_STOCK", "insufficient stock", http.StatusConflict, err)
	case errors.Is(err, ErrStockRemaining):
		return common.NewAppError("STOCK_REMAINING", "product still has stock", http.StatusConflict, err)
	case errors.Is(err, pricing.ErrInvalidArgument):
		return pricing.AsAppError(err)
	default:
		return err
	}
}
