package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// IdentityResolutions counts identity resolver outcomes by principal kind
	// and result (ok, missing, revoked, expired, invalid, invalid_pin, ...).
	IdentityResolutions *prometheus.CounterVec
	Logins              *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		IdentityResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playlist_identity_resolutions_total",
				Help: "Identity resolution outcomes by principal kind and result",
			},
			[]string{"kind", "result"},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playlist_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playlist_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
