package config

// EnvPrefix is handed to envconfig; every field carries its full name explicitly.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CartMergeNone  = "none"
	CartMergeUnion = "union"
)

const (
	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvPort             = "STOREFRONT_APP_PORT"
	EnvDBDSN            = "STOREFRONT_DB_DSN"
	EnvDBHost           = "STOREFRONT_DB_HOST"
	EnvDBUser           = "STOREFRONT_DB_USER"
	EnvDBName           = "STOREFRONT_DB_NAME"
	EnvDBPassword       = "STOREFRONT_DB_PASSWORD"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvJWTSecret        = "STOREFRONT_JWT_SECRET"
	EnvCartMergePolicy  = "STOREFRONT_CART_MERGE_POLICY"
	EnvCartAnonymousTTL = "STOREFRONT_CART_ANONYMOUS_TTL"
	EnvCORSOrigins      = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
