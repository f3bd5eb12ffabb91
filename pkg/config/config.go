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
	JWT      JWTConfig
	Pricing  PricingConfig
	Checkout CheckoutConfig
	Notify   NotifyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARBORHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"ARBORHAUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ARBORHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARBORHAUS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"ARBORHAUS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARBORHAUS_DB_DSN"`
	Driver string `envconfig:"ARBORHAUS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ARBORHAUS_DB_HOST"`
	Port     int    `envconfig:"ARBORHAUS_DB_PORT" default:"5432"`
	User     string `envconfig:"ARBORHAUS_DB_USER"`
	Password string `envconfig:"ARBORHAUS_DB_PASSWORD"`
	Name     string `envconfig:"ARBORHAUS_DB_NAME"`
	SSLMode  string `envconfig:"ARBORHAUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARBORHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARBORHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARBORHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARBORHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARBORHAUS_REDIS_URL"`
	Address      string        `envconfig:"ARBORHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"ARBORHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARBORHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARBORHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARBORHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARBORHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARBORHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARBORHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ARBORHAUS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ARBORHAUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ARBORHAUS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig tunes the cart reconciliation drift policy. The defaults match
// the documented behavior: tiny drift is silently corrected, large drift forces
// the customer to re-review the line.
type PricingConfig struct {
	DriftRemovePercent  float64 `envconfig:"ARBORHAUS_PRICING_DRIFT_REMOVE_PCT" default:"5"`
	DriftCorrectPercent float64 `envconfig:"ARBORHAUS_PRICING_DRIFT_CORRECT_PCT" default:"0.01"`
}

type CheckoutConfig struct {
	CodePrefix        string        `envconfig:"ARBORHAUS_ORDER_CODE_PREFIX" default:"AH"`
	IdempotencyTTL    time.Duration `envconfig:"ARBORHAUS_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	CodeRetryAttempts int           `envconfig:"ARBORHAUS_ORDER_CODE_RETRY_ATTEMPTS" default:"3"`
}

type NotifyConfig struct {
	ProjectID        string        `envconfig:"ARBORHAUS_GCP_PROJECT_ID"`
	Topic            string        `envconfig:"ARBORHAUS_NOTIFY_TOPIC" default:"ah-notification-events"`
	FulfillmentEmail string        `envconfig:"ARBORHAUS_NOTIFY_FULFILLMENT_EMAIL" default:"workshop@arborhaus.example"`
	PublishTimeout   time.Duration `envconfig:"ARBORHAUS_NOTIFY_PUBLISH_TIMEOUT" default:"5s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
