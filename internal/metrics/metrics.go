package metrics

import (
	"chinchi/internal/game"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	roomsCreated  prometheus.Counter
	gamesFinished *prometheus.CounterVec
	connections   prometheus.Gauge
	livenessDrops prometheus.Counter
}

// New registers all collectors on a fresh registry. activeRooms is sampled on
// every scrape.
func New(activeRooms func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chinchi",
			Name:      "rooms_created_total",
			Help:      "Rooms created since start.",
		}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chinchi",
			Name:      "games_finished_total",
			Help:      "Finished games by reason.",
		}, []string{"reason"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chinchi",
			Name:      "connections_active",
			Help:      "Open WebSocket connections.",
		}),
		livenessDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chinchi",
			Name:      "liveness_disconnects_total",
			Help:      "Connections closed after missing heartbeats.",
		}),
	}

	m.registry.MustRegister(
		m.roomsCreated,
		m.gamesFinished,
		m.connections,
		m.livenessDrops,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chinchi",
			Name:      "rooms_active",
			Help:      "Rooms currently in the registry.",
		}, func() float64 { return float64(activeRooms()) }),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RoomCreated() {
	if m != nil {
		m.roomsCreated.Inc()
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) LivenessDrop() {
	if m != nil {
		m.livenessDrops.Inc()
	}
}

// Record counts a finished game. It satisfies game.ResultSink.
func (m *Metrics) Record(r game.Result) {
	if m != nil {
		m.gamesFinished.WithLabelValues(string(r.Reason)).Inc()
	}
}
