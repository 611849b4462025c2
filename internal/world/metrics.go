package world

import "github.com/prometheus/client_golang/prometheus"

// Metrics - prometheus-метрики конвейера чанков.
// Если Registerer не задан, метрики создаются, но нигде не регистрируются.
type Metrics struct {
	Generated prometheus.Counter
	Meshed    prometheus.Counter
	Stale     *prometheus.CounterVec
	Aborted   prometheus.Counter
	Recycled  prometheus.Counter
	Published prometheus.Counter
	Evicted   prometheus.Counter

	GenerateSeconds prometheus.Histogram
	MeshSeconds     prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (если reg != nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	buckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25}
	m := &Metrics{
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "generated_total",
			Help:      "Чанков, данные которых сгенерированы и опубликованы в кеше.",
		}),
		Meshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "meshed_total",
			Help:      "Чанков, для которых построена сетка.",
		}),
		Stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "stale_total",
			Help:      "Задач и результатов, отброшенных из-за смены поколения слота.",
		}, []string{"stage"}),
		Aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "mesh_aborted_total",
			Help:      "Построений сетки, прерванных из-за неготового соседа.",
		}),
		Recycled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "recycled_total",
			Help:      "Слотов, переиспользованных при сдвиге окна.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "published_total",
			Help:      "Сеток, переданных потоку отрисовки.",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "evicted_total",
			Help:      "Опубликованных сеток, снятых после выхода чанка из окна.",
		}),
		GenerateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "generate_duration_seconds",
			Help:      "Длительность генерации чанка.",
			Buckets:   buckets,
		}),
		MeshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "streamer",
			Subsystem: "chunks",
			Name:      "mesh_duration_seconds",
			Help:      "Длительность построения сетки чанка.",
			Buckets:   buckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Generated, m.Meshed, m.Stale, m.Aborted, m.Recycled,
			m.Published, m.Evicted, m.GenerateSeconds, m.MeshSeconds)
	}
	return m
}
