package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "CATERING"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "CATERING_APP_ENV"
	EnvPort       = "CATERING_APP_PORT"
	EnvDBDSN      = "CATERING_DB_DSN"
	EnvDBHost     = "CATERING_DB_HOST"
	EnvDBUser     = "CATERING_DB_USER"
	EnvDBName     = "CATERING_DB_NAME"
	EnvRedisURL   = "CATERING_REDIS_URL"
	EnvJWTSecret  = "CATERING_JWT_SECRET"
	EnvJWTIssuer  = "CATERING_JWT_ISSUER"
	EnvGCPProject = "CATERING_GCP_PROJECT_ID"
	EnvTaxRate    = "CATERING_DEFAULT_TAX_RATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Business     BusinessConfig
	CORS         CORSConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Business.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CATERING_APP_ENV" required:"true"`
	Port         string `envconfig:"CATERING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CATERING_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CATERING_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CATERING_LOG_WARN_STACK" default:"false"`
	// MetricsAddr is where the background workers expose /metrics. Empty
	// disables the listener.
	MetricsAddr string `envconfig:"CATERING_METRICS_ADDR" default:":9090"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CATERING_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"CATERING_DB_DSN"`
	Driver     string `envconfig:"CATERING_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"CATERING_SQLITE_PATH" default:"catering.db"`

	LegacyHost     string `envconfig:"CATERING_DB_HOST"`
	LegacyPort     int    `envconfig:"CATERING_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CATERING_DB_USER"`
	LegacyPassword string `envconfig:"CATERING_DB_PASSWORD"`
	LegacyName     string `envconfig:"CATERING_DB_NAME"`
	LegacySSLMode  string `envconfig:"CATERING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CATERING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CATERING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CATERING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CATERING_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQuery logs statements slower than this at warn level; zero
	// disables it.
	SlowQuery time.Duration `envconfig:"CATERING_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CATERING_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CATERING_REDIS_ADDR"`
	Password     string        `envconfig:"CATERING_REDIS_PASSWORD"`
	DB           int           `envconfig:"CATERING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CATERING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CATERING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CATERING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CATERING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CATERING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify tokens minted by the
// hosted auth provider. The service never issues tokens itself.
type JWTConfig struct {
	Secret    string `envconfig:"CATERING_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"CATERING_JWT_ISSUER" required:"true"`
	Audience  string `envconfig:"CATERING_JWT_AUDIENCE" default:"authenticated"`
	AdminRole string `envconfig:"CATERING_JWT_ADMIN_ROLE" default:"admin"`
}

type RateLimitConfig struct {
	QuoteWindow  time.Duration `envconfig:"CATERING_RATE_LIMIT_QUOTE_WINDOW" default:"10m"`
	QuoteIPLimit int           `envconfig:"CATERING_RATE_LIMIT_QUOTE_IP_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CATERING_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CATERING_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CATERING_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CATERING_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CATERING_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CATERING_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names the topics the outbox publisher writes to. The functions
// topic feeds the serverless email and PDF functions; the domain topic feeds
// the analytics worker.
type PubSubConfig struct {
	FunctionsTopic        string `envconfig:"CATERING_PUBSUB_FUNCTIONS_TOPIC" default:"catering-function-requests"`
	DomainTopic           string `envconfig:"CATERING_PUBSUB_DOMAIN_TOPIC" default:"catering-domain-events"`
	AnalyticsSubscription string `envconfig:"CATERING_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"catering-domain-events-analytics"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"CATERING_BIGQUERY_DATASET" default:"catering"`
	EventsTable string `envconfig:"CATERING_BIGQUERY_EVENTS_TABLE" default:"catering_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CATERING_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"CATERING_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"CATERING_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"CATERING_OUTBOX_RETENTION" default:"720h"`
	DLQRetention   time.Duration `envconfig:"CATERING_OUTBOX_DLQ_RETENTION" default:"2160h"`
}

// BusinessConfig carries the pricing defaults applied to new estimates.
type BusinessConfig struct {
	DefaultTaxRate     string `envconfig:"CATERING_DEFAULT_TAX_RATE" default:"8.25"`
	InvoiceDueDays     int    `envconfig:"CATERING_INVOICE_DUE_DAYS" default:"14"`
	ContractRemindDays int    `envconfig:"CATERING_CONTRACT_REMIND_DAYS" default:"3"`
}

// TaxRate returns the default tax rate as a percentage.
func (b BusinessConfig) TaxRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(b.DefaultTaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (b BusinessConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(b.DefaultTaxRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal percentage: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100", EnvTaxRate)
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CATERING_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"CATERING_CRON_INTERVAL" default:"15m"`
	LockTTL    time.Duration `envconfig:"CATERING_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"CATERING_CRON_JOB_TIMEOUT" default:"3m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
