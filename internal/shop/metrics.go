package shop

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOp     = "op"
	labelResult = "result"

	resultOK    = "ok"
	resultError = "error"
)

type Metrics struct {
	Operations *prometheus.HistogramVec
	CartAdds   prometheus.Counter
	CartClears prometheus.Counter
	CartLines  prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shop_operation_duration_seconds",
				Help:    "Service operation latency, simulated delay included",
				Buckets: []float64{.05, .1, .2, .25, .3, .5, 1, 2.5},
			},
			[]string{labelOp, labelResult},
		),
		CartAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_cart_adds_total",
			Help: "Products added to the cart",
		}),
		CartClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shop_cart_clears_total",
			Help: "Cart clears",
		}),
		CartLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shop_cart_lines",
			Help: "Distinct products currently in the cart",
		}),
	}

	reg.MustRegister(m.Operations, m.CartAdds, m.CartClears, m.CartLines)
	return m
}

func (m *Metrics) observe(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.Operations.WithLabelValues(op, result).Observe(d.Seconds())
}

func (m *Metrics) added(lines int) {
	if m == nil {
		return
	}
	m.CartAdds.Inc()
	m.CartLines.Set(float64(lines))
}

func (m *Metrics) cleared() {
	if m == nil {
		return
	}
	m.CartClears.Inc()
	m.CartLines.Set(0)
}
