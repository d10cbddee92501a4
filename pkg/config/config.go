package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; individual tags carry the full name.
	EnvPrefix = "INSTALLERZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "INSTALLERZ_DB_DSN"
	EnvDBHost = "INSTALLERZ_DB_HOST"
	EnvDBUser = "INSTALLERZ_DB_USER"
	EnvDBName = "INSTALLERZ_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Scheduling   SchedulingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduling.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INSTALLERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"INSTALLERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INSTALLERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INSTALLERZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"INSTALLERZ_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"INSTALLERZ_DB_DSN"`
	Driver string `envconfig:"INSTALLERZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INSTALLERZ_DB_HOST"`
	LegacyPort     int    `envconfig:"INSTALLERZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INSTALLERZ_DB_USER"`
	LegacyPassword string `envconfig:"INSTALLERZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"INSTALLERZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"INSTALLERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INSTALLERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INSTALLERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INSTALLERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INSTALLERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INSTALLERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INSTALLERZ_REDIS_ADDR"`
	Password     string        `envconfig:"INSTALLERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"INSTALLERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INSTALLERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INSTALLERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INSTALLERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INSTALLERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INSTALLERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INSTALLERZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INSTALLERZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"INSTALLERZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SchedulingConfig carries the slot defaults and lock tuning for the
// assignment engine. Default times follow the field crews' standard working
// day and apply when a create/update request omits them.
type SchedulingConfig struct {
	DefaultSlotStart string `envconfig:"INSTALLERZ_SCHED_DEFAULT_SLOT_START" default:"08:00"`
	DefaultSlotEnd   string `envconfig:"INSTALLERZ_SCHED_DEFAULT_SLOT_END" default:"17:00"`

	AggregateLockTimeout  time.Duration `envconfig:"INSTALLERZ_SCHED_AGGREGATE_LOCK_TIMEOUT" default:"5s"`
	InstallerLockTTL      time.Duration `envconfig:"INSTALLERZ_SCHED_INSTALLER_LOCK_TTL" default:"30s"`
	InstallerLockWait     time.Duration `envconfig:"INSTALLERZ_SCHED_INSTALLER_LOCK_WAIT" default:"3s"`
	InstallerLockInterval time.Duration `envconfig:"INSTALLERZ_SCHED_INSTALLER_LOCK_INTERVAL" default:"100ms"`
}

func (s SchedulingConfig) validate() error {
	if s.AggregateLockTimeout <= 0 {
		return fmt.Errorf("aggregate lock timeout must be positive")
	}
	if s.InstallerLockTTL <= 0 || s.InstallerLockWait <= 0 || s.InstallerLockInterval <= 0 {
		return fmt.Errorf("installer lock ttl, wait and interval must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INSTALLERZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INSTALLERZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INSTALLERZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"INSTALLERZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INSTALLERZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic     string `envconfig:"INSTALLERZ_PUBSUB_ORDERS_TOPIC" default:"iz-order-events"`
	SchedulingTopic string `envconfig:"INSTALLERZ_PUBSUB_SCHEDULING_TOPIC" default:"iz-scheduling-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"INSTALLERZ_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"INSTALLERZ_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"INSTALLERZ_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
