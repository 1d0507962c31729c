package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the
// prefix only matters for fields that forget one.
const EnvPrefix = "FITCOACH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "FITCOACH_APP_ENV"
	EnvPort         = "FITCOACH_APP_PORT"
	EnvDBDSN        = "FITCOACH_DB_DSN"
	EnvDBHost       = "FITCOACH_DB_HOST"
	EnvDBUser       = "FITCOACH_DB_USER"
	EnvDBName       = "FITCOACH_DB_NAME"
	EnvDBPassword   = "FITCOACH_DB_PASSWORD"
	EnvRedisURL     = "FITCOACH_REDIS_URL"
	EnvJWTSecret    = "FITCOACH_JWT_SECRET"
	EnvJWTIssuer    = "FITCOACH_JWT_ISSUER"
	EnvSessionTTL   = "FITCOACH_SESSION_TTL_HOURS"
	EnvUseSQLite    = "FITCOACH_USE_SQLITE"
	EnvStripeAPIKey = "FITCOACH_STRIPE_API_KEY"
	EnvStripeSecret = "FITCOACH_STRIPE_SECRET"
	EnvStripeEnv    = "FITCOACH_STRIPE_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
