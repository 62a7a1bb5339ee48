package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the relay. Defined in a standalone package so HTTP
// and provider-client packages can record without import cycles.

var (
	PostsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crossposter_posts_total",
		Help: "Publicaciones despachadas por canal y resultado",
	}, []string{"channel", "outcome"})

	OAuthExchangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crossposter_oauth_exchanges_total",
		Help: "Intercambios de code OAuth por versión de API y resultado",
	}, []string{"api_version", "outcome"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossposter_http_request_duration_seconds",
		Help:    "Duración de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Register registers the relay metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{PostsTotal, OAuthExchangesTotal, HTTPRequestDuration} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Outcome normaliza el label de resultado.
func Outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
