package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvDBDSN    = "STOREFRONT_DB_DSN"
	EnvDBHost   = "STOREFRONT_DB_HOST"
	EnvDBUser   = "STOREFRONT_DB_USER"
	EnvDBName   = "STOREFRONT_DB_NAME"
	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvCartDriver   = "STOREFRONT_CART_DRIVER"
	EnvGCSBucket    = "STOREFRONT_GCS_BUCKET_NAME"
	EnvMaxUploadMB  = "STOREFRONT_MAX_UPLOAD_MB"
	EnvSMTPHost     = "STOREFRONT_SMTP_HOST"
	EnvCORSOrigins  = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvOrderNumSalt = "STOREFRONT_ORDER_NUMBER_SALT"
)

// legacyDBEnvVars must all be present when no DSN is configured.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	CartDriverMemory = "memory"
	CartDriverRedis  = "redis"
)
