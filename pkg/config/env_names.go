package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix mostly matters for documentation output.
const EnvPrefix = "arborhaus"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "ARBORHAUS_APP_ENV"
	EnvPort       = "ARBORHAUS_APP_PORT"
	EnvDBDSN      = "ARBORHAUS_DB_DSN"
	EnvDBDriver   = "ARBORHAUS_DB_DRIVER"
	EnvDBHost     = "ARBORHAUS_DB_HOST"
	EnvDBUser     = "ARBORHAUS_DB_USER"
	EnvDBName     = "ARBORHAUS_DB_NAME"
	EnvRedisURL   = "ARBORHAUS_REDIS_URL"
	EnvJWTSecret  = "ARBORHAUS_JWT_SECRET"
	EnvJWTIssuer  = "ARBORHAUS_JWT_ISSUER"
	EnvJWTExpMins = "ARBORHAUS_JWT_EXPIRATION_MINUTES"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
