// 文件路径: internal/metrics/metrics.go
// 模块说明: 业务指标（下单、状态流转、收款、退款、上传、登录、通知投递），与 HTTP 指标一起暴露在 /metrics。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopboard"

var (
	ordersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "placed_total",
		Help:      "Orders created through checkout.",
	})
	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Order status transitions by target status and actor.",
	}, []string{"to", "actor"})
	paymentsCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "captured_total",
		Help:      "Payments confirmed by provider.",
	}, []string{"provider"})
	revenueCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "captured_cents_total",
		Help:      "Captured amount in minor currency units.",
	}, []string{"currency"})
	refunds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "refunds_total",
		Help:      "Refunds issued by provider and result.",
	}, []string{"provider", "result"})
	uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "uploads_total",
		Help:      "Uploads by result.",
	}, []string{"result"})
	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Notification deliveries by result.",
	}, []string{"result"})
	lowStock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "low_stock_products",
		Help:      "Products at or below the low stock threshold at the last check.",
	})
)

func OrderPlaced() { ordersPlaced.Inc() }

func OrderTransition(to, actor string) { orderTransitions.WithLabelValues(to, actor).Inc() }

// PaymentCaptured records a captured payment and its amount.
func PaymentCaptured(provider, currency string, amountCents int64) {
	paymentsCaptured.WithLabelValues(provider).Inc()
	if amountCents > 0 {
		revenueCents.WithLabelValues(currency).Add(float64(amountCents))
	}
}

func RefundIssued(provider string, err error) { refunds.WithLabelValues(provider, result(err)).Inc() }

func Upload(err error) { uploads.WithLabelValues(result(err)).Inc() }

func Login(res string) { logins.WithLabelValues(res).Inc() }

func NotificationDelivered(err error) { notifications.WithLabelValues(result(err)).Inc() }

func SetLowStock(n int) { lowStock.Set(float64(n)) }

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
