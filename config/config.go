package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"notesapi/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AuthStrict     = "strict"
	AuthPermissive = "permissive"

	QueueMemory = "memory"
	QueuePubSub = "pubsub"

	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"

	LogConsole = "console"
	LogGCP     = "gcp"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Store       StoreConfig       `yaml:"store"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Inference   InferenceConfig   `yaml:"inference"`
	Logging     LoggingConfig     `yaml:"logging"`
	GoogleCloud GoogleCloudConfig `yaml:"google_cloud"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	GinMode         string        `yaml:"gin_mode"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type AuthConfig struct {
	Mode          string `yaml:"mode"`
	JWTSecret     string `yaml:"jwt_secret"`
	PublicKeyFile string `yaml:"public_key_file"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
}

// Enabled reports whether a token verifier can be built from the config.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.PublicKeyFile != ""
}

type EnrichmentConfig struct {
	Queue              string        `yaml:"queue"`
	Workers            int           `yaml:"workers"`
	QueueSize          int           `yaml:"queue_size"`
	EnqueueTimeout     time.Duration `yaml:"enqueue_timeout"`
	PubSubTopic        string        `yaml:"pubsub_topic"`
	PubSubSubscription string        `yaml:"pubsub_subscription"`
}

type InferenceConfig struct {
	SummaryProvider  string        `yaml:"summary_provider"`
	HuggingFaceURL   string        `yaml:"huggingface_url"`
	HuggingFaceToken string        `yaml:"huggingface_token"`
	OllamaURL        string        `yaml:"ollama_url"`
	SummaryModel     string        `yaml:"summary_model"`
	SentimentModel   string        `yaml:"sentiment_model"`
	SummaryMaxChars  int           `yaml:"summary_max_chars"`
	Timeout          time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Backend string `yaml:"backend"`
	Level   string `yaml:"level"`
	LogID   string `yaml:"log_id"`
}

type GoogleCloudConfig struct {
	ProjectID              string `yaml:"project_id"`
	ServiceAccountFilename string `yaml:"service_account_filename"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			MaxBodyBytes:    1 << 20,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 15 * time.Second,
			GinMode:         "release",
		},
		Store: defaultStoreConfig(),
		Redis: RedisConfig{
			CacheTTL: 5 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthStrict,
		},
		Enrichment: EnrichmentConfig{
			Queue:          QueueMemory,
			Workers:        4,
			QueueSize:      100,
			EnqueueTimeout: 2 * time.Second,
		},
		Inference: InferenceConfig{
			SummaryProvider: ProviderHuggingFace,
			HuggingFaceURL:  "https://api-inference.huggingface.co",
			OllamaURL:       "http://localhost:11434",
			SummaryModel:    "EbanLee/kobart-summary-v3",
			SentimentModel:  "nlptown/bert-base-multilingual-uncased-sentiment",
			SummaryMaxChars: 300,
			Timeout:         2 * time.Minute,
		},
		Logging: LoggingConfig{
			Backend: LogConsole,
			Level:   "info",
			LogID:   "notesapi",
		},
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE
// (if set), then environment variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if filename := os.Getenv("CONFIG_FILE"); filename != "" {
		if err := readFile(filename, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(filename string, cfg *Config) error {
	f, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(f, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", filename, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = utils.GetEnvAsString("PORT", cfg.Server.Port)
	cfg.Server.MaxBodyBytes = utils.GetEnvAsInt64("MAX_BODY_BYTES", cfg.Server.MaxBodyBytes)
	cfg.Server.AllowedOrigins = utils.GetEnvAsStringSlice("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.ShutdownTimeout = utils.GetEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.GinMode = utils.GetEnvAsString("GIN_MODE", cfg.Server.GinMode)

	cfg.Store = loadStoreConfig(cfg.Store)

	cfg.Redis.URL = utils.GetEnvAsString("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.CacheTTL = utils.GetEnvAsDuration("NOTE_CACHE_TTL", cfg.Redis.CacheTTL)

	cfg.Auth.Mode = strings.ToLower(utils.GetEnvAsString("AUTH_MODE", cfg.Auth.Mode))
	cfg.Auth.JWTSecret = utils.GetEnvAsString("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.PublicKeyFile = utils.GetEnvAsString("AUTH_JWT_PUBLIC_KEY_FILE", cfg.Auth.PublicKeyFile)
	cfg.Auth.Issuer = utils.GetEnvAsString("AUTH_JWT_ISSUER", cfg.Auth.Issuer)
	cfg.Auth.Audience = utils.GetEnvAsString("AUTH_JWT_AUDIENCE", cfg.Auth.Audience)

	cfg.Enrichment.Queue = utils.GetEnvAsString("ENRICH_QUEUE", cfg.Enrichment.Queue)
	cfg.Enrichment.Workers = utils.GetEnvAsInt("ENRICH_WORKERS", cfg.Enrichment.Workers)
	cfg.Enrichment.QueueSize = utils.GetEnvAsInt("ENRICH_QUEUE_SIZE", cfg.Enrichment.QueueSize)
	cfg.Enrichment.EnqueueTimeout = utils.GetEnvAsDuration("ENRICH_ENQUEUE_TIMEOUT", cfg.Enrichment.EnqueueTimeout)
	cfg.Enrichment.PubSubTopic = utils.GetEnvAsString("PUBSUB_TOPIC", cfg.Enrichment.PubSubTopic)
	cfg.Enrichment.PubSubSubscription = utils.GetEnvAsString("PUBSUB_SUBSCRIPTION", cfg.Enrichment.PubSubSubscription)

	cfg.Inference.SummaryProvider = utils.GetEnvAsString("SUMMARY_PROVIDER", cfg.Inference.SummaryProvider)
	cfg.Inference.HuggingFaceURL = utils.GetEnvAsString("HF_API_URL", cfg.Inference.HuggingFaceURL)
	cfg.Inference.HuggingFaceToken = utils.GetEnvAsString("HF_API_TOKEN", cfg.Inference.HuggingFaceToken)
	cfg.Inference.OllamaURL = utils.GetEnvAsString("OLLAMA_URL", cfg.Inference.OllamaURL)
	cfg.Inference.SummaryModel = utils.GetEnvAsString("SUMMARY_MODEL", cfg.Inference.SummaryModel)
	cfg.Inference.SentimentModel = utils.GetEnvAsString("SENTIMENT_MODEL", cfg.Inference.SentimentModel)
	cfg.Inference.SummaryMaxChars = utils.GetEnvAsInt("SUMMARY_MAX_CHARS", cfg.Inference.SummaryMaxChars)
	cfg.Inference.Timeout = utils.GetEnvAsDuration("INFERENCE_TIMEOUT", cfg.Inference.Timeout)

	cfg.Logging.Backend = utils.GetEnvAsString("LOG_BACKEND", cfg.Logging.Backend)
	cfg.Logging.Level = utils.GetEnvAsString("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.LogID = utils.GetEnvAsString("LOG_ID", cfg.Logging.LogID)

	cfg.GoogleCloud.ProjectID = utils.GetEnvAsString("GOOGLE_CLOUD_PROJECT", cfg.GoogleCloud.ProjectID)
	cfg.GoogleCloud.ServiceAccountFilename = utils.GetEnvAsString("GOOGLE_APPLICATION_CREDENTIALS", cfg.GoogleCloud.ServiceAccountFilename)
}

// Validate rejects unknown enum values and incomplete backend settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store: sqlite_path is required for the sqlite driver"))
		}
	case StoreMongo:
		if c.Store.Mongo.URI == "" {
			errs = append(errs, errors.New("store: mongo uri is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: unsupported driver %q (supported: sqlite, mongo)", c.Store.Driver))
	}

	switch c.Auth.Mode {
	case AuthStrict, AuthPermissive:
	default:
		errs = append(errs, fmt.Errorf("auth: unsupported mode %q (supported: strict, permissive)", c.Auth.Mode))
	}
	if c.Auth.JWTSecret != "" && c.Auth.PublicKeyFile != "" {
		errs = append(errs, errors.New("auth: set either jwt_secret or public_key_file, not both"))
	}

	switch c.Enrichment.Queue {
	case QueueMemory:
	case QueuePubSub:
		if c.GoogleCloud.ProjectID == "" || c.Enrichment.PubSubTopic == "" || c.Enrichment.PubSubSubscription == "" {
			errs = append(errs, errors.New("enrichment: pubsub queue needs google_cloud.project_id, pubsub_topic and pubsub_subscription"))
		}
	default:
		errs = append(errs, fmt.Errorf("enrichment: unsupported queue %q (supported: memory, pubsub)", c.Enrichment.Queue))
	}
	if c.Enrichment.Workers < 1 {
		errs = append(errs, errors.New("enrichment: workers must be at least 1"))
	}
	if c.Enrichment.QueueSize < 1 {
		errs = append(errs, errors.New("enrichment: queue_size must be at least 1"))
	}

	switch c.Inference.SummaryProvider {
	case ProviderHuggingFace, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("inference: unsupported summary provider %q (supported: huggingface, ollama)", c.Inference.SummaryProvider))
	}

	switch c.Logging.Backend {
	case LogConsole:
	case LogGCP:
		if c.GoogleCloud.ProjectID == "" {
			errs = append(errs, errors.New("logging: gcp backend needs google_cloud.project_id"))
		}
	default:
		errs = append(errs, fmt.Errorf("logging: unsupported backend %q (supported: console, gcp)", c.Logging.Backend))
	}

	return errors.Join(errs...)
}
