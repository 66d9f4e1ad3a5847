package mongodb

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	CoinsCollection   = "coins"
	PairsCollection   = "pairs"
	HistoryCollection = "current_coin_history"
)

// Connect dials url with majority writes. LOCAL=true connects directly instead of through the replica set.
func Connect(ctx context.Context, url string, connectTimeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	isLocalBuild := os.Getenv("LOCAL") == "true"
	opts := options.Client().SetDirect(isLocalBuild).
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority()).
		SetRetryWrites(true).
		SetConnectTimeout(connectTimeout).
		ApplyURI(url)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
