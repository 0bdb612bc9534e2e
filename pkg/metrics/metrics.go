package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	registry = prometheus.NewRegistry()

	FallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_total",
		Help:      "Product operations served by the in-memory fallback store.",
	}, []string{"operation"})

	BackendErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_errors_total",
		Help:      "Durable backend calls that failed.",
	}, []string{"backend", "operation"})

	BackendUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backend_up",
		Help:      "Result of the last durable backend probe (1 reachable, 0 not).",
	}, []string{"backend"})

	TranslationLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "translation_cache_lookups_total",
		Help:      "Translation cache lookups by result.",
	}, []string{"result"})

	TranslationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "translation_failures_total",
		Help:      "Provider calls that failed and fell back to the source text.",
	})

	TranslationCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "translation_cache_entries",
		Help:      "Entries currently held by the translation cache.",
	})
)

func init() {
	registry.MustRegister(
		FallbackTotal,
		BackendErrors,
		BackendUp,
		TranslationLookups,
		TranslationFailures,
		TranslationCacheSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the storefront registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func IncFallback(operation string) {
	FallbackTotal.WithLabelValues(operation).Inc()
}

func IncBackendError(backend, operation string) {
	BackendErrors.WithLabelValues(backend, operation).Inc()
}

func SetBackendUp(backend string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	BackendUp.WithLabelValues(backend).Set(v)
}

func AddTranslationLookups(hits, misses int) {
	if hits > 0 {
		TranslationLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		TranslationLookups.WithLabelValues("miss").Add(float64(misses))
	}
}

func IncTranslationFailure() {
	TranslationFailures.Inc()
}

func SetTranslationCacheSize(n int) {
	TranslationCacheSize.Set(float64(n))
}
