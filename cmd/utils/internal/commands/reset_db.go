package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const stopListKey = "lounge:stoplist"

// ResetDB drops the lounge database and clears the stop list - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the lounge database and stop list!")
	logger.Infof("⚠️  This action cannot be undone!")

	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	dbName := databaseName(config)
	logger.Info("Dropping database", "database", dbName)
	result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		logger.Infof("⚠️  Failed to drop database %s (may not exist): %v", dbName, result.Err())
	} else {
		logger.Info("Database dropped", "database", dbName)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.GetStringOrDef("redis.addr", "localhost:6379"),
		Password: config.GetStringOrDef("redis.password", ""),
	})
	defer rdb.Close()

	if err := rdb.Del(ctx, stopListKey).Err(); err != nil {
		return fmt.Errorf("clear stop list: %w", err)
	}
	logger.Info("Stop list cleared", "key", stopListKey)
	return nil
}
