package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountQuotesTotal counts computed discount quotes by tier and customer type.
	DiscountQuotesTotal *prometheus.CounterVec
	// StockMovementsTotal counts stock mutations by kind (set, in, out) and result.
	StockMovementsTotal *prometheus.CounterVec
	// LowStockAlertsTotal counts low stock alerts handled by the worker.
	LowStockAlertsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
// Only the first call has any effect; a nil registerer means the default registry.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_quotes_total",
			Help:      "Count of discount quotes by tier and customer type.",
		}, []string{"tier", "customer_type"})
		StockMovementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Count of stock mutations by kind and outcome.",
		}, []string{"kind", "result"})
		LowStockAlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_stock_alerts_total",
			Help:      "Count of processed low stock alerts by topic.",
		}, []string{"topic"})

		DiscountQuotesTotal = register(reg, DiscountQuotesTotal)
		StockMovementsTotal = register(reg, StockMovementsTotal)
		LowStockAlertsTotal = register(reg, LowStockAlertsTotal)
	})
}

// ObserveDiscountQuote records a quote outcome. It is a no-op until metrics are registered.
func ObserveDiscountQuote(tier, customerType string) {
	if DiscountQuotesTotal == nil {
		return
	}
	if customerType == "" {
		customerType = "NONE"
	}
	DiscountQuotesTotal.WithLabelValues(tier, customerType).Inc()
}

// ObserveStockMovement records a stock mutation outcome.
func ObserveStockMovement(kind, result string) {
	if StockMovementsTotal == nil {
		return
	}
	StockMovementsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveLowStockAlert records a handled low stock alert.
func ObserveLowStockAlert(topic string) {
	if LowStockAlertsTotal == nil {
		return
	}
	LowStockAlertsTotal.WithLabelValues(topic).Inc()
}
