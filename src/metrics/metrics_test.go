package metrics

import (
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsdClient(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	logger, _ := tests.GetLoggerStatsd(t)
	sd := NewStatsdClient(conn.LocalAddr().String(), "trade_bot", logger)
	defer sd.Close()
	require.NotNil(t, sd.Client)

	sd.Inc("jump.success")
	buf := make([]byte, 512)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "trade_bot.jump.success:1|c", strings.TrimSpace(string(buf[:n])))
}

func TestStatsdClientWithoutServerDropsStats(t *testing.T) {
	sd := &StatsdClient{}
	sd.Inc("jump.success")
	sd.Gauge("thresholds.initialized", 1)
	sd.TimingDuration("jump.duration", time.Second)
	assert.NoError(t, sd.Close())
}

func TestPrometheusClient(t *testing.T) {
	pc := NewPrometheusClient("trade_bot")
	pc.Inc("jump.success")
	pc.Inc("jump.success")
	pc.Gauge("thresholds.initialized", 6)
	pc.TimingDuration("jump.duration", 2*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(pc.counters["jump.success"]))
	assert.Equal(t, 6.0, testutil.ToFloat64(pc.gauges["thresholds.initialized"]))

	rec := httptest.NewRecorder()
	pc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "trade_bot_jump_success_total 2")
	assert.Contains(t, body, "trade_bot_thresholds_initialized 6")
	assert.Contains(t, body, "trade_bot_jump_duration_seconds_count 1")
}

func TestNew(t *testing.T) {
	logger, _ := tests.GetLoggerStatsd(t)

	stats, handler := New(config.Metrics{Backend: "none"}, logger)
	assert.IsType(t, Nop{}, stats)
	assert.Nil(t, handler)

	stats, handler = New(config.Metrics{Backend: "prometheus", Prefix: "bot"}, logger)
	assert.IsType(t, &PrometheusClient{}, stats)
	assert.NotNil(t, handler)
}
