package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/cmd/utils/internal/seeding"
	"go.mongodb.org/mongo-driver/bson"
)

const templatesSeedID = "house_templates_v1"

// SeedTemplates inserts the house templates once.
func SeedTemplates(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting template seeding...")

	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	db := client.Database(databaseName(config))

	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": templatesSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}
	if count > 0 {
		logger.Info("Template seeds already applied, skipping")
		return nil
	}

	n, err := seeding.SeedTemplates(ctx, db)
	if err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}

	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         templatesSeedID,
		"description": "House hookah templates for the quick order menu",
		"applied_at":  bson.M{"$currentDate": bson.M{"$type": "timestamp"}},
	})
	if err != nil {
		logger.Infof("⚠️  Failed to mark seed as applied: %v", err)
	}

	logger.Infof("Inserted %d templates", n)
	return nil
}
