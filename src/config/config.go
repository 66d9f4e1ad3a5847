package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "user.yaml"

type Binance struct {
	APIKey       string `mapstructure:"api_key"`
	APISecretKey string `mapstructure:"api_secret_key"`
	TLD          string `mapstructure:"tld"`
}

// Strategy holds the scouting parameters: a jump qualifies when
// ratio - TransactionFee*Multiplier*ratio exceeds the stored baseline.
type Strategy struct {
	TransactionFee float64       `mapstructure:"transaction_fee"`
	Multiplier     float64       `mapstructure:"multiplier"`
	ScoutInterval  time.Duration `mapstructure:"scout_interval"`
}

// Orders holds the pacing of an order cycle. MaxWait of zero waits for fills forever.
type Orders struct {
	Attempts            int           `mapstructure:"attempts"`
	Warmup              time.Duration `mapstructure:"warmup"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	AckDelay            time.Duration `mapstructure:"ack_delay"`
	AckPollInterval     time.Duration `mapstructure:"ack_poll_interval"`
	AckErrorDelay       time.Duration `mapstructure:"ack_error_delay"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	PollErrorDelay      time.Duration `mapstructure:"poll_error_delay"`
	BalancePollInterval time.Duration `mapstructure:"balance_poll_interval"`
	MaxWait             time.Duration `mapstructure:"max_wait"`
}

type Storage struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Database string `mapstructure:"database"`
}

type Redis struct {
	Host       string        `mapstructure:"host"`
	Port       string        `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	LockExpiry time.Duration `mapstructure:"lock_expiry"`
}

func (r Redis) Enabled() bool {
	return r.Host != ""
}

func (r Redis) Addr() string {
	return r.Host + ":" + r.Port
}

type Metrics struct {
	Backend    string `mapstructure:"backend"`
	StatsdHost string `mapstructure:"statsd_host"`
	Prefix     string `mapstructure:"prefix"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

type Notifications struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type Legacy struct {
	CurrentCoinFile string `mapstructure:"current_coin_file"`
	CoinTableFile   string `mapstructure:"coin_table_file"`
}

// Config is built once at startup and handed to components by value.
type Config struct {
	Bridge            string   `mapstructure:"bridge"`
	CurrentCoin       string   `mapstructure:"current_coin"`
	SupportedCoins    []string `mapstructure:"supported_coins"`
	SupportedCoinList string   `mapstructure:"supported_coin_list"`

	Binance       Binance       `mapstructure:"binance"`
	Strategy      Strategy      `mapstructure:"strategy"`
	Orders        Orders        `mapstructure:"orders"`
	Storage       Storage       `mapstructure:"storage"`
	Redis         Redis         `mapstructure:"redis"`
	Metrics       Metrics       `mapstructure:"metrics"`
	Server        Server        `mapstructure:"server"`
	Notifications Notifications `mapstructure:"notifications"`
	Legacy        Legacy        `mapstructure:"legacy"`
}

func Default() Config {
	return Config{
		Bridge:            "USDT",
		SupportedCoinList: "supported_coin_list",
		Binance:           Binance{TLD: "com"},
		Strategy: Strategy{
			TransactionFee: 0.001,
			Multiplier:     5,
			ScoutInterval:  5 * time.Second,
		},
		Orders: Orders{
			Attempts:            20,
			Warmup:              time.Second,
			RetryDelay:          time.Second,
			AckDelay:            5 * time.Second,
			AckPollInterval:     3 * time.Second,
			AckErrorDelay:       10 * time.Second,
			PollInterval:        time.Second,
			PollErrorDelay:      2 * time.Second,
			BalancePollInterval: time.Second,
			MaxWait:             30 * time.Minute,
		},
		Storage: Storage{
			Driver:   "sqlite",
			DSN:      "data/crypto_trading.db",
			Database: "crypto_trading",
		},
		Redis:   Redis{Port: "6379", LockExpiry: 10 * time.Minute},
		Metrics: Metrics{Backend: "none", StatsdHost: "statsd.infra", Prefix: "trade_bot"},
		Server:  Server{Addr: ":8080"},
		Legacy: Legacy{
			CurrentCoinFile: ".current_coin",
			CoinTableFile:   ".current_coin_table",
		},
	}
}

// envOverrides maps environment variables onto config keys. Later entries win.
var envOverrides = []struct {
	env  string
	path []string
}{
	{"BRIDGE", []string{"bridge"}},
	{"CURRENT_COIN", []string{"current_coin"}},
	{"SUPPORTED_COINS", []string{"supported_coins"}},
	{"SUPPORTED_COIN_LIST", []string{"supported_coin_list"}},
	{"BINANCE_API_KEY", []string{"binance", "api_key"}},
	{"BINANCE_API_SECRET_KEY", []string{"binance", "api_secret_key"}},
	{"BINANCE_TLD", []string{"binance", "tld"}},
	{"TRANSACTION_FEE", []string{"strategy", "transaction_fee"}},
	{"MULTIPLIER", []string{"strategy", "multiplier"}},
	{"SCOUT_INTERVAL", []string{"strategy", "scout_interval"}},
	{"ORDER_MAX_WAIT", []string{"orders", "max_wait"}},
	{"MONGODB", []string{"storage", "dsn"}},
	{"MONGODBNAME", []string{"storage", "database"}},
	{"STORAGE_DRIVER", []string{"storage", "driver"}},
	{"STORAGE_DSN", []string{"storage", "dsn"}},
	{"REDIS_HOST", []string{"redis", "host"}},
	{"REDIS_PORT", []string{"redis", "port"}},
	{"REDIS_PASSWORD", []string{"redis", "password"}},
	{"METRICS", []string{"metrics", "backend"}},
	{"STATSD_HOST", []string{"metrics", "statsd_host"}},
	{"NOTIFY_WEBHOOK", []string{"notifications", "webhook_url"}},
	{"ADDR", []string{"server", "addr"}},
}

// Load reads the YAML file at path (optional), overlays the environment and .env, and validates the result.
func Load(path string) (Config, error) {
	raw := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	_ = godotenv.Load()
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			setPath(raw, o.path, v)
		}
	}

	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}

	if len(cfg.SupportedCoins) == 0 && cfg.SupportedCoinList != "" {
		coins, err := ReadCoinList(cfg.SupportedCoinList)
		if err != nil {
			return Config{}, err
		}
		cfg.SupportedCoins = coins
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(raw map[string]interface{}) (Config, error) {
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setPath(m map[string]interface{}, path []string, value interface{}) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// ReadCoinList reads one symbol per line, upper-cased, blank lines skipped.
func ReadCoinList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coin list: %w", err)
	}
	defer f.Close()

	var coins []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		symbol := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if symbol != "" {
			coins = append(coins, symbol)
		}
	}
	return coins, scanner.Err()
}

func (c *Config) normalize() {
	c.Bridge = strings.ToUpper(strings.TrimSpace(c.Bridge))
	c.CurrentCoin = strings.ToUpper(strings.TrimSpace(c.CurrentCoin))
	coins := make([]string, 0, len(c.SupportedCoins))
	seen := map[string]bool{}
	for _, s := range c.SupportedCoins {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		coins = append(coins, s)
	}
	c.SupportedCoins = coins
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	c.Metrics.Backend = strings.ToLower(c.Metrics.Backend)
}

func (c Config) Validate() error {
	if c.Bridge == "" {
		return errors.New("bridge asset is required")
	}
	if len(c.SupportedCoins) < 2 {
		return fmt.Errorf("at least two supported coins are required, got %d", len(c.SupportedCoins))
	}
	if c.IsSupported(c.Bridge) {
		return fmt.Errorf("bridge %s must not be a supported coin", c.Bridge)
	}
	if c.Strategy.TransactionFee < 0 || c.Strategy.Multiplier < 0 {
		return errors.New("transaction fee and multiplier must not be negative")
	}
	if c.Strategy.ScoutInterval <= 0 {
		return errors.New("scout interval must be positive")
	}
	if c.Orders.Attempts < 1 {
		return errors.New("order attempts must be at least 1")
	}
	switch c.Storage.Driver {
	case "sqlite", "mysql", "mongodb":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Metrics.Backend {
	case "", "none", "statsd", "prometheus":
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Metrics.Backend)
	}
	return nil
}

func (c Config) IsSupported(symbol string) bool {
	for _, s := range c.SupportedCoins {
		if s == symbol {
			return true
		}
	}
	return false
}
