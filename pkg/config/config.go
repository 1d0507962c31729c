package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Webhook       WebhookConfig
	Cookies       CookieConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FITCOACH_APP_ENV" required:"true"`
	Port         string `envconfig:"FITCOACH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FITCOACH_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FITCOACH_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FITCOACH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN        string `envconfig:"FITCOACH_DB_DSN"`
	SQLitePath string `envconfig:"FITCOACH_DB_SQLITE_PATH" default:"fitcoach.db"`

	LegacyHost     string `envconfig:"FITCOACH_DB_HOST"`
	LegacyPort     int    `envconfig:"FITCOACH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FITCOACH_DB_USER"`
	LegacyPassword string `envconfig:"FITCOACH_DB_PASSWORD"`
	LegacyName     string `envconfig:"FITCOACH_DB_NAME"`
	LegacySSLMode  string `envconfig:"FITCOACH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FITCOACH_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FITCOACH_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FITCOACH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FITCOACH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"FITCOACH_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FITCOACH_REDIS_URL"`
	Address      string        `envconfig:"FITCOACH_REDIS_ADDR"`
	Password     string        `envconfig:"FITCOACH_REDIS_PASSWORD"`
	DB           int           `envconfig:"FITCOACH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FITCOACH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FITCOACH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FITCOACH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FITCOACH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FITCOACH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig signs the admin session cookie and the fallback admin flag cookie.
type JWTConfig struct {
	Secret          string `envconfig:"FITCOACH_JWT_SECRET" required:"true"`
	Issuer          string `envconfig:"FITCOACH_JWT_ISSUER" default:"fitcoach"`
	SessionTTLHours int    `envconfig:"FITCOACH_SESSION_TTL_HOURS" default:"24"`
}

// SessionTTL returns the lifetime of admin sessions and the flag cookie.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.SessionTTLHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FITCOACH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FITCOACH_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FITCOACH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FITCOACH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FITCOACH_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"FITCOACH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"FITCOACH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"FITCOACH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FITCOACH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FITCOACH_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"FITCOACH_STRIPE_API_KEY"`
	Secret   string `envconfig:"FITCOACH_STRIPE_SECRET"`
	Env      string `envconfig:"FITCOACH_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"FITCOACH_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FITCOACH_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type CookieConfig struct {
	Secure bool   `envconfig:"FITCOACH_COOKIE_SECURE" default:"true"`
	Domain string `envconfig:"FITCOACH_COOKIE_DOMAIN"`
}

// CORSConfig lists the browser origins allowed to call the API with cookies.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FITCOACH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
