package alerts

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-inventaris/internal/common"
)

// Source lists recorded alerts.
type Source interface {
	Recent(ctx context.Context, limit int64) ([]Alert, error)
}

// RecentHandler handles GET /api/v1/inventory/alerts?limit=20.
type RecentHandler struct {
	Source Source
}

func (h RecentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		common.Data(w, http.StatusOK, []Alert{})
		return
	}
	limit := int64(common.AtoiDefault(r.URL.Query().Get("limit"), 20))
	items, err := h.Source.Recent(r.Context(), limit)
	if err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, "ALERTS_UNAVAILABLE", "alerts store unavailable", nil)
		return
	}
	common.Data(w, http.StatusOK, items)
}
