package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GIGMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"GIGMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GIGMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GIGMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GIGMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GIGMARKET_DB_DSN"`
	Driver string `envconfig:"GIGMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GIGMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"GIGMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GIGMARKET_DB_USER"`
	LegacyPassword string `envconfig:"GIGMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"GIGMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"GIGMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GIGMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GIGMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GIGMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GIGMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GIGMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GIGMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"GIGMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"GIGMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GIGMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GIGMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GIGMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GIGMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GIGMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GIGMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GIGMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GIGMARKET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GIGMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GIGMARKET_AUTO_MIGRATE" default:"false"`
}

// SettlementConfig holds the marketplace commission applied when an order completes.
type SettlementConfig struct {
	CommissionRate decimal.Decimal `envconfig:"GIGMARKET_COMMISSION_RATE" default:"0.10"`
	Currency       string          `envconfig:"GIGMARKET_CURRENCY" default:"INR"`
}

func (s SettlementConfig) validate() error {
	if s.CommissionRate.IsNegative() || s.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in [0, 1), got %s", EnvCommissionRate, s.CommissionRate.String())
	}
	return nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GIGMARKET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"GIGMARKET_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GIGMARKET_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GIGMARKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GIGMARKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"GIGMARKET_PUBSUB_DOMAIN_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"GIGMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	AnalyticsSubscription    string `envconfig:"GIGMARKET_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"GIGMARKET_BIGQUERY_DATASET" default:"gigmarket"`
	LedgerEventsTable string `envconfig:"GIGMARKET_BIGQUERY_LEDGER_TABLE" default:"ledger_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"GIGMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"GIGMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"GIGMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"GIGMARKET_OUTBOX_RETENTION" default:"720h"`
}

// RateLimitConfig throttles write requests per caller. A zero limit disables it.
type RateLimitConfig struct {
	Window     time.Duration `envconfig:"GIGMARKET_RATE_LIMIT_WINDOW" default:"1m"`
	WriteLimit int           `envconfig:"GIGMARKET_RATE_LIMIT_WRITES" default:"60"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"GIGMARKET_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"GIGMARKET_CRON_LOCK_TTL" default:"10m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:gigmarket.db?cache=shared&_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
