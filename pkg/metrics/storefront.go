package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics counts the domain events operators watch: placed orders,
// compensating deletes, stock rows that failed to save and outbound messages.
type StorefrontMetrics struct {
	ordersPlaced   *prometheus.CounterVec
	compensations  *prometheus.CounterVec
	stockRows      *prometheus.CounterVec
	mediaUploads   *prometheus.CounterVec
	contactRelayed *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront counters on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders persisted by checkout, by delivery method.",
	}, []string{"delivery_method"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_compensations_total",
		Help: "Compensating order deletes after an item insert failure, by outcome.",
	}, []string{"outcome"})
	stockRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_stock_rows_saved_total",
		Help: "Stock upserts issued by the stock editor, by outcome.",
	}, []string{"outcome"})
	mediaUploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_media_uploads_total",
		Help: "Product image uploads, by outcome.",
	}, []string{"outcome"})
	contactRelayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_contact_messages_total",
		Help: "Contact form messages handed to the SMTP relay, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(ordersPlaced, compensations, stockRows, mediaUploads, contactRelayed)
	return &StorefrontMetrics{
		ordersPlaced:   ordersPlaced,
		compensations:  compensations,
		stockRows:      stockRows,
		mediaUploads:   mediaUploads,
		contactRelayed: contactRelayed,
	}
}

// IncOrderPlaced counts one persisted order.
func (m *StorefrontMetrics) IncOrderPlaced(deliveryMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(deliveryMethod)).Inc()
}

// IncCompensation counts a compensating delete; ok reports whether the delete succeeded.
func (m *StorefrontMetrics) IncCompensation(ok bool) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(outcome(ok)).Inc()
}

// AddStockRows counts the saved and failed rows of one stock batch.
func (m *StorefrontMetrics) AddStockRows(saved, failed int) {
	if m == nil || m.stockRows == nil {
		return
	}
	if saved > 0 {
		m.stockRows.WithLabelValues("ok").Add(float64(saved))
	}
	if failed > 0 {
		m.stockRows.WithLabelValues("error").Add(float64(failed))
	}
}

// IncMediaUpload counts one product image upload attempt.
func (m *StorefrontMetrics) IncMediaUpload(ok bool) {
	if m == nil || m.mediaUploads == nil {
		return
	}
	m.mediaUploads.WithLabelValues(outcome(ok)).Inc()
}

// IncContactMessage counts one contact relay attempt.
func (m *StorefrontMetrics) IncContactMessage(ok bool) {
	if m == nil || m.contactRelayed == nil {
		return
	}
	m.contactRelayed.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
