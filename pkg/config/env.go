package config

// Environment variable names shared between Load and tests.
const (
	EnvPrefix = "ORDER"

	EnvAppEnv   = "ORDER_APP_ENV"
	EnvAppPort  = "ORDER_APP_PORT"
	EnvDBDSN    = "ORDER_DB_DSN"
	EnvRedisURL = "ORDER_REDIS_URL"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)
