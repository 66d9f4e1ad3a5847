package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/models"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const pairColumns = `SELECT p.from_coin, f.enabled, p.to_coin, t.enabled, p.ratio
	FROM pairs p
	JOIN coins f ON f.symbol = p.from_coin
	JOIN coins t ON t.symbol = p.to_coin`

// Store keeps coins, pairs and the current coin history in SQLite or MySQL.
type Store struct {
	db      *sql.DB
	dialect dialect
	log     interfaces.ILogger
	now     func() time.Time
}

// Open connects to cfg.DSN with cfg.Driver ("sqlite" or "mysql") and creates the schema.
func Open(cfg config.Storage, log interfaces.ILogger) (*Store, error) {
	var d dialect
	switch cfg.Driver {
	case "sqlite":
		d = sqliteDialect
		if cfg.DSN != ":memory:" {
			if dir := filepath.Dir(cfg.DSN); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("create database directory: %w", err)
				}
			}
		}
	case "mysql":
		d = mysqlDialect
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	log.Info("connecting to database", zap.String("driver", d.driver))
	db, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == "sqlite" {
		// every connection of an in-memory database is a separate database
		db.SetMaxOpenConns(1)
	}
	// Open doesn't open a connection. Validate connection:
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	s := &Store{db: db, dialect: d, log: log, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SetCoins enables symbols, disables every other stored coin and creates missing pairs between symbols.
func (s *Store) SetCoins(ctx context.Context, symbols []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE coins SET enabled = 0"); err != nil {
		return fmt.Errorf("disable coins: %w", err)
	}
	for _, symbol := range symbols {
		if _, err := tx.ExecContext(ctx, s.dialect.enableCoin, symbol); err != nil {
			return fmt.Errorf("enable coin %s: %w", symbol, err)
		}
	}
	for _, from := range symbols {
		for _, to := range symbols {
			if from == to {
				continue
			}
			if _, err := tx.ExecContext(ctx, s.dialect.insertPair, from, to); err != nil {
				return fmt.Errorf("create pair %s->%s: %w", from, to, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("coins set", zap.Strings("coins", symbols))
	return nil
}

func (s *Store) GetCurrentAsset(ctx context.Context) (string, bool, error) {
	var coin string
	err := s.db.QueryRowContext(ctx, "SELECT coin FROM current_coin_history ORDER BY id DESC LIMIT 1").Scan(&coin)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get current coin: %w", err)
	}
	return coin, true, nil
}

func (s *Store) SetCurrentAsset(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO current_coin_history (coin, created_at) VALUES (?, ?)",
		symbol, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set current coin: %w", err)
	}
	return nil
}

func (s *Store) GetPairsFrom(ctx context.Context, symbol string) ([]models.Pair, error) {
	return s.queryPairs(ctx, pairColumns+" WHERE p.from_coin = ? ORDER BY p.id", symbol)
}

func (s *Store) GetPairsTo(ctx context.Context, symbol string) ([]models.Pair, error) {
	return s.queryPairs(ctx, pairColumns+" WHERE p.to_coin = ? ORDER BY p.id", symbol)
}

func (s *Store) UnsetPairs(ctx context.Context) ([]models.Pair, error) {
	return s.queryPairs(ctx, pairColumns+" WHERE p.ratio IS NULL ORDER BY p.id")
}

func (s *Store) UpsertPairRatio(ctx context.Context, from, to string, ratio float64) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertRatio, from, to, ratio); err != nil {
		return fmt.Errorf("upsert ratio %s->%s: %w", from, to, err)
	}
	return nil
}

func (s *Store) queryPairs(ctx context.Context, query string, args ...interface{}) ([]models.Pair, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.Pair
	for rows.Next() {
		var pair models.Pair
		var ratio sql.NullFloat64
		if err := rows.Scan(&pair.From.Symbol, &pair.From.Enabled, &pair.To.Symbol, &pair.To.Enabled, &ratio); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		if ratio.Valid {
			pair.Ratio = models.RatioOf(ratio.Float64)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}
