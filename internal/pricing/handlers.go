package pricing

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/noah-isme/toko-inventaris/internal/common"
	"github.com/noah-isme/toko-inventaris/internal/obs"
)

// Handler exposes the discount calculator over HTTP.
type Handler struct {
	TaxBps int
}

type quoteRequest struct {
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	CustomerType string  `json:"customerType"`
}

type tierResponse struct {
	Rate float64 `json:"rate"`
	Tier Tier    `json:"tier"`
}

// Quote handles POST /api/v1/discounts/quote.
func (h Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := Quote(req.Price, req.Quantity, req.CustomerType, h.TaxBps)
	if err != nil {
		common.WriteError(w, AsAppError(err))
		return
	}
	obs.ObserveDiscountQuote(string(summary.Tier), Segment(req.CustomerType))
	common.Data(w, http.StatusOK, summary)
}

// Tier handles GET /api/v1/discounts/tier?rate=0.15.
func (h Handler) Tier(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("rate"))
	if raw == "" {
		common.WriteError(w, common.BadRequest("rate", "rate is required", nil))
		return
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(rate) || math.IsInf(rate, 0)) {
		err = errors.New("rate is not finite")
	}
	if err != nil {
		common.WriteError(w, common.BadRequest("rate", "rate must be a number", err))
		return
	}
	common.Data(w, http.StatusOK, tierResponse{Rate: rate, Tier: ClassifyTier(rate)})
}

// AsAppError converts calculator errors into API errors.
func AsAppError(err error) error {
	if errors.Is(err, ErrInvalidArgument) {
		return common.NewAppError("INVALID_ARGUMENT", err.Error(), http.StatusBadRequest, err)
	}
	return err
}
