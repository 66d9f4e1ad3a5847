package metrics

import (
	"net/http"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
)

// Nop drops every stat.
type Nop struct{}

func (Nop) Inc(string)                           {}
func (Nop) TimingDuration(string, time.Duration) {}
func (Nop) Gauge(string, int64)                  {}

// New builds the configured backend. The handler is non-nil only for prometheus.
func New(cfg config.Metrics, log interfaces.ILogger) (interfaces.IStatsClient, http.Handler) {
	switch cfg.Backend {
	case "statsd":
		return NewStatsdClient(cfg.StatsdHost, cfg.Prefix, log), nil
	case "prometheus":
		pc := NewPrometheusClient(cfg.Prefix)
		return pc, pc.Handler()
	default:
		return Nop{}, nil
	}
}
