package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, o := range envOverrides {
		t.Setenv(o.env, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLWithDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "user.yaml", `
bridge: usdt
current_coin: ada
supported_coins: [ada, xlm, "trx", ada]
strategy:
  multiplier: 3
  scout_interval: 10s
orders:
  poll_interval: 250ms
  max_wait: 0
storage:
  driver: SQLITE
  dsn: ":memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "USDT", cfg.Bridge)
	assert.Equal(t, "ADA", cfg.CurrentCoin)
	assert.Equal(t, []string{"ADA", "XLM", "TRX"}, cfg.SupportedCoins)
	assert.Equal(t, 0.001, cfg.Strategy.TransactionFee)
	assert.Equal(t, 3.0, cfg.Strategy.Multiplier)
	assert.Equal(t, 10*time.Second, cfg.Strategy.ScoutInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Orders.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.Orders.MaxWait)
	assert.Equal(t, 20, cfg.Orders.Attempts)
	assert.Equal(t, 3*time.Second, cfg.Orders.AckPollInterval)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "user.yaml", "bridge: USDT\nsupported_coins: [ADA, XLM]\n")
	t.Setenv("BRIDGE", "busd")
	t.Setenv("SUPPORTED_COINS", "eth,btc, bnb")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("SCOUT_INTERVAL", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "BUSD", cfg.Bridge)
	assert.Equal(t, []string{"ETH", "BTC", "BNB"}, cfg.SupportedCoins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 2*time.Second, cfg.Strategy.ScoutInterval)
}

func TestLoadReadsCoinListFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	list := writeFile(t, dir, "supported_coin_list", "ada\n\n xlm \nTRX\n")
	path := writeFile(t, dir, "user.yaml", "supported_coin_list: "+list+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADA", "XLM", "TRX"}, cfg.SupportedCoins)
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPPORTED_COINS", "ADA,XLM")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "USDT", cfg.Bridge)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.SupportedCoins = []string{"ADA", "XLM"}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"no bridge":        func(c *Config) { c.Bridge = "" },
		"one coin":         func(c *Config) { c.SupportedCoins = []string{"ADA"} },
		"bridge in list":   func(c *Config) { c.SupportedCoins = append(c.SupportedCoins, "USDT") },
		"negative fee":     func(c *Config) { c.Strategy.TransactionFee = -1 },
		"zero attempts":    func(c *Config) { c.Orders.Attempts = 0 },
		"unknown driver":   func(c *Config) { c.Storage.Driver = "postgres" },
		"unknown metrics":  func(c *Config) { c.Metrics.Backend = "graphite" },
		"no scout pausing": func(c *Config) { c.Strategy.ScoutInterval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			c.SupportedCoins = append([]string(nil), valid.SupportedCoins...)
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
