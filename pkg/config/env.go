package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "GIGMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv         = "GIGMARKET_APP_ENV"
	EnvPort           = "GIGMARKET_APP_PORT"
	EnvDBDSN          = "GIGMARKET_DB_DSN"
	EnvDBHost         = "GIGMARKET_DB_HOST"
	EnvDBUser         = "GIGMARKET_DB_USER"
	EnvDBName         = "GIGMARKET_DB_NAME"
	EnvRedisURL       = "GIGMARKET_REDIS_URL"
	EnvJWTSecret      = "GIGMARKET_JWT_SECRET"
	EnvJWTIssuer      = "GIGMARKET_JWT_ISSUER"
	EnvJWTExpMins     = "GIGMARKET_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite      = "GIGMARKET_USE_SQLITE"
	EnvCommissionRate = "GIGMARKET_COMMISSION_RATE"
	EnvGCPProjectID   = "GIGMARKET_GCP_PROJECT_ID"
	EnvPubSubDomain   = "GIGMARKET_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotifSub = "GIGMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubAnalySub = "GIGMARKET_PUBSUB_ANALYTICS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
