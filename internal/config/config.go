package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Store drivers
const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds every setting the service reads from the environment.
// It is loaded once at startup and passed into constructors.
type Config struct {
	Port    string `envconfig:"PORT" default:"3001"`
	AppMode string `envconfig:"APP_MODE" default:"development"`

	APIKey          string        `envconfig:"API_KEY"`
	JWTSecret       string        `envconfig:"JWT_SECRET" default:"default-secret-change-in-production"`
	RefreshSecret   string        `envconfig:"REFRESH_SECRET" default:"default-refresh-secret-change-in-production"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"24h"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`
	CookieDomain    string        `envconfig:"COOKIE_DOMAIN"`
	FrontendURL     string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	NotificationService string `envconfig:"NOTIFICATION_SERVICE"`
	NetsuiteService     string `envconfig:"NETSUITE_SERVICE"`
	NetsuiteAPIKey      string `envconfig:"NETSUITE_API_KEY"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"catalyst"`
	MySQLDSN      string `envconfig:"MYSQL_DSN"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	AMQPURL       string `envconfig:"AMQP_URL"`
	AMQPQueue     string `envconfig:"AMQP_QUEUE" default:"netsuite.users.sync"`
	RetrySchedule string `envconfig:"RETRY_SCHEDULE" default:"*/5 * * * *"`

	SearchTimeout     time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	DefaultTimeZone   string        `envconfig:"DEFAULT_TIME_ZONE" default:"America/New_York"`
	SalesRepCacheSize int           `envconfig:"SALES_REP_CACHE_SIZE" default:"512"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.WithError(err).Debug("No .env file loaded")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when STORE_DRIVER=%s", StoreMySQL)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether cookies should be marked secure.
func (c *Config) IsProduction() bool {
	return c.AppMode == "production"
}
