package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	templatesCollection = "templates"
	ticketsCollection   = "tickets"
)

// Store owns the MongoDB connection shared by the lounge repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

func NewStore(config *apt.Config, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		logger: logger,
		config: config,
	}
}

func (s *Store) Start(ctx context.Context) error {
	mongoURL := s.config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := s.config.GetStringOrDef("db.mongo.name", "lounge")

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	s.client = client
	s.db = client.Database(dbName)

	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", mongoURL, dbName)
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	labelIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "label", Value: 1}},
	}
	if _, err := s.db.Collection(templatesCollection).Indexes().CreateOne(ctx, labelIndex); err != nil {
		return fmt.Errorf("cannot create label index: %w", err)
	}

	createdIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	if _, err := s.db.Collection(ticketsCollection).Indexes().CreateOne(ctx, createdIndex); err != nil {
		return fmt.Errorf("cannot create created_at index: %w", err)
	}

	readyIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "ready_at", Value: 1}},
	}
	if _, err := s.db.Collection(ticketsCollection).Indexes().CreateOne(ctx, readyIndex); err != nil {
		return fmt.Errorf("cannot create ready_at index: %w", err)
	}
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *Store) collection(name string) (*mongo.Collection, error) {
	if s.db == nil {
		return nil, fmt.Errorf("MongoDB store not started")
	}
	return s.db.Collection(name), nil
}
