package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// clientDocument is the stored shape of one client's values
type clientDocument struct {
	ClientID  string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// Mongo stores each client as one document so that multi-key writes are
// atomic.
type Mongo struct {
	Collection *mongo.Collection
	Timeout    time.Duration
}

// NewMongo returns a storage backed by the client_storage collection of database
func NewMongo(client *mongo.Client, database string) *Mongo {
	return &Mongo{
		Collection: client.Database(database).Collection("client_storage"),
		Timeout:    5 * time.Second,
	}
}

func (m *Mongo) Load(ctx context.Context, clientID string) (map[string]string, error) {
	if clientID == "" {
		return nil, ErrEmptyClientID
	}
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	var doc clientDocument
	err := m.Collection.FindOne(ctx, bson.M{"_id": clientID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", clientID, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc.Values, nil
}

func (m *Mongo) Save(ctx context.Context, clientID string, values map[string]string) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	if len(values) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range values {
		set["values."+k] = v
	}
	_, err := m.Collection.UpdateOne(ctx,
		bson.M{"_id": clientID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save client %s: %w", clientID, err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, clientID string, keys ...string) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	unset := bson.M{}
	for _, k := range keys {
		unset["values."+k] = ""
	}
	_, err := m.Collection.UpdateOne(ctx,
		bson.M{"_id": clientID},
		bson.M{
			"$unset": unset,
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("delete client %s keys: %w", clientID, err)
	}
	return nil
}
