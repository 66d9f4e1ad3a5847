package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/models"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	mongoModels "github.com/BelphegorPrime/binance-trade-bot/src/sources/mongodb/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store keeps coins, pairs and the current coin history in MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    interfaces.ILogger
	statsd interfaces.IStatsClient
}

func Open(ctx context.Context, cfg config.Storage, log interfaces.ILogger, statsd interfaces.IStatsClient) (*Store, error) {
	log.Info("connecting to mongodb", zap.String("database", cfg.Database))
	client, err := Connect(ctx, cfg.DSN, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failure: %w", err)
	}
	s := &Store{client: client, db: client.Database(cfg.Database), log: log, statsd: statsd}
	_, err = s.db.Collection(PairsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create pair index: %w", err)
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) SetCoins(ctx context.Context, symbols []string) error {
	t1 := time.Now()
	coins := s.db.Collection(CoinsCollection)
	if _, err := coins.UpdateMany(ctx,
		bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: symbols}}}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "enabled", Value: false}}}},
	); err != nil {
		return fmt.Errorf("disable coins: %w", err)
	}
	for _, symbol := range symbols {
		_, err := coins.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: symbol}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "enabled", Value: true}}}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("enable coin %s: %w", symbol, err)
		}
	}

	pairs := s.db.Collection(PairsCollection)
	for _, from := range symbols {
		for _, to := range symbols {
			if from == to {
				continue
			}
			_, err := pairs.UpdateOne(ctx,
				bson.D{{Key: "from", Value: from}, {Key: "to", Value: to}},
				bson.D{{Key: "$setOnInsert", Value: bson.D{
					{Key: "_id", Value: primitive.NewObjectID()},
					{Key: "ratio", Value: nil},
				}}},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return fmt.Errorf("create pair %s->%s: %w", from, to, err)
			}
		}
	}
	s.statsd.TimingDuration("state_mgmt.set_coins", time.Since(t1))
	s.log.Info("coins set", zap.Strings("coins", symbols))
	return nil
}

func (s *Store) GetCurrentAsset(ctx context.Context) (string, bool, error) {
	var doc mongoModels.MongoCurrentCoin
	err := s.db.Collection(HistoryCollection).FindOne(ctx, bson.D{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get current coin: %w", err)
	}
	return doc.Coin, true, nil
}

func (s *Store) SetCurrentAsset(ctx context.Context, symbol string) error {
	_, err := s.db.Collection(HistoryCollection).InsertOne(ctx, mongoModels.MongoCurrentCoin{
		ID:        primitive.NewObjectID(),
		Coin:      symbol,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("set current coin: %w", err)
	}
	return nil
}

func (s *Store) GetPairsFrom(ctx context.Context, symbol string) ([]models.Pair, error) {
	return s.findPairs(ctx, bson.D{{Key: "from", Value: symbol}})
}

func (s *Store) GetPairsTo(ctx context.Context, symbol string) ([]models.Pair, error) {
	return s.findPairs(ctx, bson.D{{Key: "to", Value: symbol}})
}

func (s *Store) UnsetPairs(ctx context.Context) ([]models.Pair, error) {
	return s.findPairs(ctx, bson.D{{Key: "ratio", Value: nil}})
}

func (s *Store) UpsertPairRatio(ctx context.Context, from, to string, ratio float64) error {
	t1 := time.Now()
	_, err := s.db.Collection(PairsCollection).UpdateOne(ctx,
		bson.D{{Key: "from", Value: from}, {Key: "to", Value: to}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "ratio", Value: ratio}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: primitive.NewObjectID()}}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert ratio %s->%s: %w", from, to, err)
	}
	s.statsd.TimingDuration("state_mgmt.upsert_ratio", time.Since(t1))
	return nil
}

func (s *Store) findPairs(ctx context.Context, filter bson.D) ([]models.Pair, error) {
	cur, err := s.db.Collection(PairsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find pairs: %w", err)
	}
	var docs []mongoModels.MongoPair
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pairs: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	enabled, err := s.enabledCoins(ctx)
	if err != nil {
		return nil, err
	}
	return toPairs(docs, enabled), nil
}

func (s *Store) enabledCoins(ctx context.Context) (map[string]bool, error) {
	cur, err := s.db.Collection(CoinsCollection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find coins: %w", err)
	}
	var coins []models.Coin
	if err := cur.All(ctx, &coins); err != nil {
		return nil, fmt.Errorf("decode coins: %w", err)
	}
	enabled := make(map[string]bool, len(coins))
	for _, c := range coins {
		enabled[c.Symbol] = c.Enabled
	}
	return enabled, nil
}

func toPairs(docs []mongoModels.MongoPair, enabled map[string]bool) []models.Pair {
	pairs := make([]models.Pair, 0, len(docs))
	for _, d := range docs {
		pairs = append(pairs, models.Pair{
			From:  models.Coin{Symbol: d.From, Enabled: enabled[d.From]},
			To:    models.Coin{Symbol: d.To, Enabled: enabled[d.To]},
			Ratio: d.Ratio,
		})
	}
	return pairs
}
