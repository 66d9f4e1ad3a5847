package redis

import (
	"testing"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/tests"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, password string) (*Connector, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	if password != "" {
		mr.RequireAuth(password)
	}
	logger, _ := tests.GetLoggerStatsd(t)
	c, err := NewConnector(config.Redis{
		Host:       mr.Host(),
		Port:       mr.Port(),
		Password:   password,
		LockExpiry: 3 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSettlementMutexIsExclusive(t *testing.T) {
	c, mr := newTestConnector(t, "")
	first := c.NewMutex("jump:USDT")
	second := c.NewMutex("jump:USDT")

	require.NoError(t, first.Lock())
	assert.True(t, mr.Exists("jump:USDT"))
	assert.Error(t, second.Lock())

	ok, err := first.Extend()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = first.Unlock()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, second.Lock())
	assert.Equal(t, time.Second, c.ExtendEvery())
}

func TestMutexExpires(t *testing.T) {
	c, mr := newTestConnector(t, "")
	first := c.NewMutex("jump:BUSD")
	require.NoError(t, first.Lock())

	mr.FastForward(4 * time.Second)
	assert.NoError(t, c.NewMutex("jump:BUSD").Lock())
}

func TestConnectorAuth(t *testing.T) {
	c, _ := newTestConnector(t, "secret")
	assert.NoError(t, c.NewMutex("jump:USDT").Lock())
}

func TestConnectorUnreachable(t *testing.T) {
	logger, _ := tests.GetLoggerStatsd(t)
	_, err := NewConnector(config.Redis{Host: "127.0.0.1", Port: "1"}, logger)
	assert.Error(t, err)
}
