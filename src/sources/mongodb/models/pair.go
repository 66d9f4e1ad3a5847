package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MongoPair is a document of the pairs collection. ObjectIDs order pairs by insertion.
type MongoPair struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	From  string             `json:"from" bson:"from"`
	To    string             `json:"to" bson:"to"`
	Ratio *float64           `json:"ratio" bson:"ratio"`
}
