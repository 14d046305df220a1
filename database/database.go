package database

import (
	"context"
	"fmt"
	"log/slog"

	"conference-webapp/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func DBInit(ctx context.Context, connString string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(connString)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %v", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("db is not available: %v", err)
	}

	return client, nil
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Info("using in-memory store")
		return NewMemoryStore(), nil
	case config.DriverMongo:
		client, err := DBInit(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Mongo.Database)
		return NewMongoStore(client, cfg.Mongo.Database, logger), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
