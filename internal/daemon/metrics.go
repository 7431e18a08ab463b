package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg *prometheus.Registry

	polls      prometheus.Counter
	pollErrors prometheus.Counter
	monthNet   prometheus.Gauge
	monthSpend prometheus.Gauge
	monthIn    prometheus.Gauge
	monthTxs   prometheus.Gauge
}

// newMetrics registers the daemon's collectors on a private registry so
// several services (tests) can coexist in one process.
func newMetrics(s *Service) *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finview", Subsystem: "daemon", Name: "polls_total",
			Help: "Backend polls attempted.",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "finview", Subsystem: "daemon", Name: "poll_errors_total",
			Help: "Backend polls that failed.",
		}),
		monthNet: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "finview", Name: "month_net",
			Help: "Month-to-date net amount.",
		}),
		monthSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "finview", Name: "month_spend",
			Help: "Month-to-date spend (positive).",
		}),
		monthIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "finview", Name: "month_income",
			Help: "Month-to-date income.",
		}),
		monthTxs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "finview", Name: "month_transactions",
			Help: "Month-to-date transaction count.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		m.polls, m.pollErrors,
		m.monthNet, m.monthSpend, m.monthIn, m.monthTxs,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "finview", Subsystem: "daemon", Name: "stream_subscribers",
			Help: "Connected SSE subscribers.",
		}, func() float64 { return float64(s.subscriberCount()) }),
	)

	if counts := s.cfg.CacheCounts; counts != nil {
		m.reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "finview", Subsystem: "cache", Name: "hits_total",
				Help: "Fresh response cache hits.",
			}, func() float64 { h, _ := counts(); return float64(h) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "finview", Subsystem: "cache", Name: "misses_total",
				Help: "Response cache misses.",
			}, func() float64 { _, mi := counts(); return float64(mi) }),
		)
	}
	return m
}

func (m *metrics) observe(snap Snapshot) {
	m.monthNet.Set(snap.Net)
	m.monthSpend.Set(snap.Spend)
	m.monthIn.Set(snap.Income)
	m.monthTxs.Set(float64(snap.Transactions))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
