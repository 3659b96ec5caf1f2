package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	RoomsCreated       prometheus.Counter
	GamesStarted       prometheus.Counter
	GamesCompleted     prometheus.Counter
	RoundsCompleted    prometheus.Counter
	PromptsSubmitted   prometheus.Counter
	Regenerations      prometheus.Counter
	GenerationFailures prometheus.Counter
	GenerationLatency  prometheus.Histogram
	ActiveGames        prometheus.Gauge
}

// New registers the game collectors on a private registry so that several
// instances can coexist in one process (tests build one per server).
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Number of rooms created",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Number of games started",
		}),
		GamesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_completed_total",
			Help:      "Number of games that reached game over",
		}),
		RoundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_completed_total",
			Help:      "Number of rounds resolved by a Card Czar vote",
		}),
		PromptsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompts_submitted_total",
			Help:      "Number of prompts accepted",
		}),
		Regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regenerations_total",
			Help:      "Number of player-initiated image regenerations",
		}),
		GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_generation_failures_total",
			Help:      "Number of image generations recorded with an error",
		}),
		GenerationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_generation_seconds",
			Help:      "Image generation latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_games",
			Help:      "Number of games currently in play",
		}),
	}
	m.registry.MustRegister(
		m.RoomsCreated,
		m.GamesStarted,
		m.GamesCompleted,
		m.RoundsCompleted,
		m.PromptsSubmitted,
		m.Regenerations,
		m.GenerationFailures,
		m.GenerationLatency,
		m.ActiveGames,
	)
	return m
}

func (m *Metrics) ObserveGeneration(d time.Duration, failed bool) {
	m.GenerationLatency.Observe(d.Seconds())
	if failed {
		m.GenerationFailures.Inc()
	}
}

func (m *Metrics) GameStarted() {
	m.GamesStarted.Inc()
	m.ActiveGames.Inc()
}

func (m *Metrics) GameCompleted() {
	m.GamesCompleted.Inc()
	m.ActiveGames.Dec()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
