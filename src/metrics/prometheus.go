package metrics

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusClient registers collectors on first use under prefix, "jump.success" becomes
// prefix_jump_success_total.
type PrometheusClient struct {
	Registry *prometheus.Registry
	prefix   string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
	gauges     map[string]prometheus.Gauge
}

func NewPrometheusClient(prefix string) *PrometheusClient {
	return &PrometheusClient{
		Registry:   prometheus.NewRegistry(),
		prefix:     prefix,
		counters:   map[string]prometheus.Counter{},
		histograms: map[string]prometheus.Histogram{},
		gauges:     map[string]prometheus.Gauge{},
	}
}

func (pc *PrometheusClient) name(statName, suffix string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(statName)
	if pc.prefix != "" {
		name = pc.prefix + "_" + name
	}
	return name + suffix
}

func (pc *PrometheusClient) Inc(statName string) {
	pc.mu.Lock()
	c, ok := pc.counters[statName]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Name: pc.name(statName, "_total"), Help: statName})
		pc.Registry.MustRegister(c)
		pc.counters[statName] = c
	}
	pc.mu.Unlock()
	c.Inc()
}

func (pc *PrometheusClient) TimingDuration(statName string, value time.Duration) {
	pc.mu.Lock()
	h, ok := pc.histograms[statName]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    pc.name(statName, "_seconds"),
			Help:    statName,
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		})
		pc.Registry.MustRegister(h)
		pc.histograms[statName] = h
	}
	pc.mu.Unlock()
	h.Observe(value.Seconds())
}

func (pc *PrometheusClient) Gauge(statName string, value int64) {
	pc.mu.Lock()
	g, ok := pc.gauges[statName]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{Name: pc.name(statName, ""), Help: statName})
		pc.Registry.MustRegister(g)
		pc.gauges[statName] = g
	}
	pc.mu.Unlock()
	g.Set(float64(value))
}

// Handler serves the registry in the exposition format.
func (pc *PrometheusClient) Handler() http.Handler {
	return promhttp.HandlerFor(pc.Registry, promhttp.HandlerOpts{})
}
