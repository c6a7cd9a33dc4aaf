package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Broker       BrokerConfig
	Orders       OrdersConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" && !cfg.FeatureFlags.UseSQLite {
		return nil, fmt.Errorf("%s is required", EnvDBDSN)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDER_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDER_DB_DSN"`
	Driver string `envconfig:"ORDER_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ORDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDER_REDIS_ADDR"`
	Password     string        `envconfig:"ORDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BrokerConfig points at the eventing sidecar used for both pub/sub and
// federated service invocation.
type BrokerConfig struct {
	BaseURL        string        `envconfig:"ORDER_BROKER_BASE_URL" default:"http://localhost:3500"`
	PubSubName     string        `envconfig:"ORDER_BROKER_PUBSUB_NAME" default:"pubsub"`
	InvokeTimeout  time.Duration `envconfig:"ORDER_BROKER_INVOKE_TIMEOUT" default:"15s"`
	PublishTimeout time.Duration `envconfig:"ORDER_BROKER_PUBLISH_TIMEOUT" default:"10s"`

	CartAppID      string `envconfig:"ORDER_BROKER_CART_APP_ID" default:"shoppingcart"`
	InventoryAppID string `envconfig:"ORDER_BROKER_INVENTORY_APP_ID" default:"inventory"`
	DiscountAppID  string `envconfig:"ORDER_BROKER_DISCOUNT_APP_ID" default:"discount"`
	ShipmentAppID  string `envconfig:"ORDER_BROKER_SHIPMENT_APP_ID" default:"shipment"`
}

type OrdersConfig struct {
	PendingTimeout time.Duration `envconfig:"ORDER_PENDING_TIMEOUT" default:"3600s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDER_AUTO_MIGRATE" default:"false"`
}
