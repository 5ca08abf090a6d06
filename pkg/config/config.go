package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Pricing  PricingConfig
	Dispatch DispatchConfig
	Eventing EventingConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLATO_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	DSN string `envconfig:"PLATO_DB_DSN"`

	Host     string `envconfig:"PLATO_DB_HOST"`
	Port     int    `envconfig:"PLATO_DB_PORT" default:"5432"`
	User     string `envconfig:"PLATO_DB_USER"`
	Password string `envconfig:"PLATO_DB_PASSWORD"`
	Name     string `envconfig:"PLATO_DB_NAME"`
	SSLMode  string `envconfig:"PLATO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATO_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"PLATO_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATO_REDIS_URL"`
	Address      string        `envconfig:"PLATO_REDIS_ADDR"`
	Password     string        `envconfig:"PLATO_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig drives the estimator: courier speed and the distance assumed
// when no tracking data exists yet.
type PricingConfig struct {
	CourierSpeedKmh    float64 `envconfig:"PLATO_COURIER_SPEED_KMH" default:"25"`
	FallbackDistanceKm float64 `envconfig:"PLATO_FALLBACK_DISTANCE_KM" default:"5"`
}

type DispatchConfig struct {
	QueuePageLimit int `envconfig:"PLATO_DISPATCH_QUEUE_PAGE_LIMIT" default:"25"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"PLATO_EVENTING_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PLATO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"PLATO_PUBSUB_ORDER_EVENTS_TOPIC" default:"plato-order-events"`
	OrderEventsSubscription string `envconfig:"PLATO_PUBSUB_ORDER_EVENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLATO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLATO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLATO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"PLATO_DB_HOST": db.Host,
		"PLATO_DB_USER": db.User,
		"PLATO_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either PLATO_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
