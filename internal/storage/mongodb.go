// mongodb.go - Accounting map reference data stored in MongoDB

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bosocmputer/account_statement_ai/internal/ledger"
)

// MongoStore reads reference data from one database
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	collection string
}

// AccountingCategoryRecord is one category document of the accounting map collection
type AccountingCategoryRecord struct {
	Category string                               `bson:"category"`
	Aliases  []string                             `bson:"aliases,omitempty"`
	Fields   map[string]ledger.AccountingMapEntry `bson:"fields"`
}

// ConnectMongo opens and pings a MongoDB connection
func ConnectMongo(ctx context.Context, uri, dbName, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", dbName).Msg("✅ Connected to MongoDB successfully!")
	return &MongoStore{client: client, db: client.Database(dbName), collection: collection}, nil
}

// Close disconnects the client
func (s *MongoStore) Close() {
	if s == nil || s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("MongoDB disconnect failed")
		return
	}
	log.Info().Msg("MongoDB connection closed")
}

// LoadAccountingMap reads every category record of the collection
func (s *MongoStore) LoadAccountingMap(ctx context.Context) (*ledger.AccountingMap, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := s.db.Collection(s.collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.collection, err)
	}
	defer cursor.Close(ctx)

	var records []AccountingCategoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.collection, err)
	}

	return AccountingMapFromRecords(records)
}

// AccountingMapFromRecords assembles category records into an accounting map
func AccountingMapFromRecords(records []AccountingCategoryRecord) (*ledger.AccountingMap, error) {
	doc := ledger.AccountingMapDocument{
		Categories: make(map[string]map[string]ledger.AccountingMapEntry, len(records)),
		Aliases:    map[string]string{},
	}
	for _, r := range records {
		if r.Category == "" {
			return nil, fmt.Errorf("accounting map record without category")
		}
		if _, dup := doc.Categories[r.Category]; dup {
			return nil, fmt.Errorf("accounting map category %s defined twice", r.Category)
		}
		doc.Categories[r.Category] = r.Fields
		for _, alias := range r.Aliases {
			doc.Aliases[alias] = r.Category
		}
	}
	return ledger.NewAccountingMap(doc)
}
