package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bot. Each instance
// owns its registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	InboundMessages  *prometheus.CounterVec
	Replies          *prometheus.CounterVec
	ReplyDelay       prometheus.Histogram
	ProactiveCycles  *prometheus.CounterVec
	CompletionErrors *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		InboundMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound Telegram messages by kind.",
		}, []string{"kind"}),
		Replies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies to the owner by outcome.",
		}, []string{"outcome"}),
		ReplyDelay: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reply_delay_seconds",
			Help:      "Artificial delay applied before replying.",
			Buckets:   []float64{1, 5, 10, 30, 90, 300, 900, 3600, 28800},
		}),
		ProactiveCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proactive_cycles_total",
			Help:      "Proactive scheduler cycles by outcome.",
		}, []string{"outcome"}),
		CompletionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_errors_total",
			Help:      "Failed completion calls by provider.",
		}, []string{"provider"}),
	}
}

func (m *Metrics) ObserveReplyDelay(d time.Duration) {
	m.ReplyDelay.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
