package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/pkg/errors"
)

const (
	DatasetSourceFile     = "file"
	DatasetSourcePostgres = "postgres"
)

var config *Config

// Config holds every configuration value of the ledger binaries. Only this
// struct must be used to read configuration, no direct access to env or any
// other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=momo_ledger"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr            string        `env:"HTTP_LISTEN_ADDR,default=:8000"`
	HttpServerReadTimeout     time.Duration `env:"HTTP_SERVER_READ_TIMEOUT,default=2500ms"`
	HttpServerWriteTimeout    time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT,default=2500ms"`
	HttpMaxRequestBodySize    int           `env:"HTTP_MAX_REQUEST_BODY_SIZE,default=1048576"`
	HttpCompressionLevel      int           `env:"HTTP_COMPRESSION_LEVEL,default=6"`
	HttpServerReadBufferSize  int           `env:"HTTP_SERVER_READ_BUFFER_SIZE,default=16384"`
	HttpServerWriteBufferSize int           `env:"HTTP_SERVER_WRITE_BUFFER_SIZE,default=16384"`

	AuthUsername string `env:"AUTH_USERNAME"`
	AuthPassword string `env:"AUTH_PASSWORD"`

	DatasetSource string `env:"DATASET_SOURCE,default=file"`
	DatasetPath   string `env:"DATASET_PATH,default=data/transactions.json"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	EventsEnabled           bool          `env:"EVENTS_ENABLED"`
	EventsStream            string        `env:"EVENTS_STREAM,default=ledger:transactions:events"`
	EventsConsumerGroup     string        `env:"EVENTS_CONSUMER_GROUP,default=auditors"`
	EventsConsumerName      string        `env:"EVENTS_CONSUMER_NAME"`
	EventsWorkers           int           `env:"EVENTS_WORKERS,default=2"`
	EventsBufferSize        int           `env:"EVENTS_BUFFER_SIZE,default=1024"`
	EventsMaxLen            int64         `env:"EVENTS_MAX_LEN,default=100000"`
	EventsMaxRetries        int           `env:"EVENTS_MAX_RETRIES,default=3"`
	EventsVisibilityTimeout time.Duration `env:"EVENTS_VISIBILITY_TIMEOUT,default=30s"`
	EventsPollInterval      time.Duration `env:"EVENTS_POLL_INTERVAL,default=1s"`

	PromNamespace string `env:"PROM_NAMESPACE,default=momo_ledger"`

	LogEnv   string `env:"LOG_ENV"`
	LogLevel string `env:"LOG_LEVEL"`
}

// Check is a binary specific requirement applied after Validate.
type Check func(c *Config) error

func Load(path string, checks ...Check) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	if err = c.Validate(); err != nil {
		return err
	}
	for _, check := range checks {
		if err = check(c); err != nil {
			return err
		}
	}

	config = c
	return nil
}

// Validate reports the first configuration value no binary can run with.
func (c *Config) Validate() error {
	switch c.DatasetSource {
	case DatasetSourceFile, DatasetSourcePostgres:
	default:
		return errors.Errorf("DATASET_SOURCE must be %q or %q, got %q", DatasetSourceFile, DatasetSourcePostgres, c.DatasetSource)
	}
	if c.EventsEnabled && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required when EVENTS_ENABLED is set")
	}
	return nil
}

// RequireAuth is the check of the api binary, it refuses to serve without
// credentials.
func RequireAuth(c *Config) error {
	if c.AuthUsername == "" {
		return errors.New("AUTH_USERNAME is required")
	}
	if c.AuthPassword == "" {
		return errors.New("AUTH_PASSWORD is required")
	}
	return nil
}

// RequireEvents is the check of the auditor binary.
func RequireEvents(c *Config) error {
	if c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
