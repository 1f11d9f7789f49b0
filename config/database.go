package config

import (
	"notesapi/utils"
	"time"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

type StoreConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Mongo      DatabaseConfig `yaml:"mongo"`
}

type DatabaseConfig struct {
	URI             string        `yaml:"uri"`
	MaxPoolSize     uint64        `yaml:"max_pool_size"`
	MinPoolSize     uint64        `yaml:"min_pool_size"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DatabaseName    string        `yaml:"database"`
	RetryWrites     bool          `yaml:"retry_writes"`
}

func defaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:     StoreSQLite,
		SQLitePath: "notes.db",
		Mongo: DatabaseConfig{
			URI:             "mongodb://localhost:27017",
			MaxPoolSize:     100,
			MinPoolSize:     10,
			MaxConnIdleTime: 60 * time.Second,
			DatabaseName:    "notesapi",
			RetryWrites:     true,
		},
	}
}

// loadStoreConfig applies environment overrides on top of base.
func loadStoreConfig(base StoreConfig) StoreConfig {
	return StoreConfig{
		Driver:     utils.GetEnvAsString("STORE_DRIVER", base.Driver),
		SQLitePath: utils.GetEnvAsString("SQLITE_PATH", base.SQLitePath),
		Mongo: DatabaseConfig{
			URI:             utils.GetEnvAsString("MONGO_URI", base.Mongo.URI),
			MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", base.Mongo.MaxPoolSize),
			MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", base.Mongo.MinPoolSize),
			MaxConnIdleTime: time.Duration(utils.GetEnvAsInt("MONGO_MAX_CONN_IDLE_TIME", int(base.Mongo.MaxConnIdleTime/time.Second))) * time.Second,
			DatabaseName:    utils.GetEnvAsString("MONGO_DB", base.Mongo.DatabaseName),
			RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", base.Mongo.RetryWrites),
		},
	}
}
