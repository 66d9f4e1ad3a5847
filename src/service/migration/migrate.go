package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
)

const oldSuffix = ".old"

// Migrate loads state left behind by file based deployments into the store
// and renames the files so the import runs only once. Missing files are ignored.
func Migrate(ctx context.Context, legacy config.Legacy, store interfaces.IRatioStore, supported []string, log interfaces.ILogger) error {
	known := make(map[string]bool, len(supported))
	for _, s := range supported {
		known[s] = true
	}
	if err := migrateCurrentCoin(ctx, legacy.CurrentCoinFile, store, known, log); err != nil {
		return err
	}
	return migrateCoinTable(ctx, legacy.CoinTableFile, store, known, log)
}

func readLegacy(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

func retire(path string, log interfaces.ILogger) error {
	if err := os.Rename(path, path+oldSuffix); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	log.Info("legacy file renamed, it can now be deleted", zap.String("file", path+oldSuffix))
	return nil
}

func migrateCurrentCoin(ctx context.Context, path string, store interfaces.IRatioStore, known map[string]bool, log interfaces.ILogger) error {
	data, ok, err := readLegacy(path)
	if err != nil || !ok {
		return err
	}
	coin := strings.ToUpper(strings.TrimSpace(string(data)))
	switch {
	case coin == "":
		log.Warn("legacy current coin file is empty", zap.String("file", path))
	case !known[coin]:
		log.Warn("legacy current coin is not supported, ignoring", zap.String("coin", coin))
	default:
		log.Info("loading current coin from legacy file", zap.String("coin", coin))
		if err := store.SetCurrentAsset(ctx, coin); err != nil {
			return fmt.Errorf("migrate current coin: %w", err)
		}
	}
	return retire(path, log)
}

func migrateCoinTable(ctx context.Context, path string, store interfaces.IRatioStore, known map[string]bool, log interfaces.ILogger) error {
	data, ok, err := readLegacy(path)
	if err != nil || !ok {
		return err
	}
	var table map[string]map[string]float64
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	log.Info("loading ratio table from legacy file", zap.String("file", path))

	imported := 0
	for _, from := range sortedKeys(table) {
		row := table[from]
		for _, to := range sortedKeys(row) {
			if from == to {
				continue
			}
			if !known[from] || !known[to] {
				log.Debug("skipping unsupported pair", zap.String("from", from), zap.String("to", to))
				continue
			}
			if err := store.UpsertPairRatio(ctx, from, to, row[to]); err != nil {
				return fmt.Errorf("migrate ratio %s->%s: %w", from, to, err)
			}
			imported++
		}
	}
	log.Info("legacy ratios imported", zap.Int("pairs", imported))
	return retire(path, log)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
