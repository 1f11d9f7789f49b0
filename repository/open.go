package repository

import (
	"context"
	"fmt"
	"time"

	"notesapi/config"
	"notesapi/log"

	"github.com/redis/go-redis/v9"
)

// Open builds the configured store. When a Redis URL is configured the
// store is wrapped in a CachedStore.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (NoteStore, error) {
	var (
		store NoteStore
		err   error
	)

	switch cfg.Store.Driver {
	case config.StoreSQLite:
		store, err = OpenSQLite(cfg.Store.SQLitePath, opts...)
		if err != nil {
			return nil, err
		}
	case config.StoreMongo:
		client, err := ConnectMongo(ctx, cfg.Store.Mongo)
		if err != nil {
			return nil, err
		}
		if err := SetupIndexes(ctx, client.Database(cfg.Store.Mongo.DatabaseName)); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
		store = NewMongoStore(client, cfg.Store.Mongo.DatabaseName, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Redis.URL == "" {
		return store, nil
	}

	client, err := NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		store.Close()
		return nil, err
	}
	log.Logger().Infof(nil, "note cache enabled, ttl %s", cfg.Redis.CacheTTL)
	return NewCachedStore(store, client, cfg.Redis.CacheTTL), nil
}

// NewRedisClient parses url and pings the server before returning.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
