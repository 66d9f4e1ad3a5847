package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MongoCurrentCoin struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Coin      string             `json:"coin" bson:"coin"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
