package metrics

import (
	"net"
	"sync"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"github.com/cactus/go-statsd-client/statsd"
	"go.uber.org/zap"
)

const defaultStatsdPort = "8125"

// StatsdClient reports to a statsd daemon. Only the first send error is logged.
type StatsdClient struct {
	Client statsd.Statter
	Log    interfaces.ILogger
	once   sync.Once
}

// NewStatsdClient connects to host, "host" or "host:port". A failed init yields a client that drops stats.
func NewStatsdClient(host, prefix string, log interfaces.ILogger) *StatsdClient {
	sd := &StatsdClient{Log: log}
	address := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		address = net.JoinHostPort(host, defaultStatsdPort)
	}
	sd.Log.Info("connecting", zap.String("address", address))
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:       address,
		Prefix:        prefix,
		FlushInterval: 1000 * time.Millisecond, // fixed max delay for alerts
	})
	if err != nil {
		sd.Log.Error("StatsD init error, disabling stats", zap.Error(err))
		return sd
	}
	sd.Client = client
	sd.Log.Info("StatsD init successful.")
	return sd
}

func (sd *StatsdClient) report(err error) {
	if err != nil {
		sd.once.Do(func() {
			sd.Log.Error("Error on StatsD, further error messages supressed", zap.Error(err))
		})
	}
}

func (sd *StatsdClient) Inc(statName string) {
	if sd.Client != nil {
		sd.report(sd.Client.Inc(statName, 1, 1.0))
	}
}

func (sd *StatsdClient) TimingDuration(statName string, value time.Duration) {
	if sd.Client != nil {
		sd.report(sd.Client.TimingDuration(statName, value, 1.0))
	}
}

func (sd *StatsdClient) Gauge(statName string, value int64) {
	if sd.Client != nil {
		sd.report(sd.Client.Gauge(statName, value, 1.0))
	}
}

func (sd *StatsdClient) Close() error {
	if sd.Client != nil {
		return sd.Client.Close()
	}
	return nil
}
