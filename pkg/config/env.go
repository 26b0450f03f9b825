package config

// EnvPrefix is the envconfig prefix; every variable below carries it explicitly.
const EnvPrefix = "GROCER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "GROCER_APP_ENV"
	EnvPort     = "GROCER_APP_PORT"
	EnvLogLevel = "GROCER_LOG_LEVEL"

	EnvDBDSN  = "GROCER_DB_DSN"
	EnvDBHost = "GROCER_DB_HOST"
	EnvDBUser = "GROCER_DB_USER"
	EnvDBName = "GROCER_DB_NAME"

	EnvRedisURL = "GROCER_REDIS_URL"

	EnvJWTSecret  = "GROCER_JWT_SECRET"
	EnvJWTIssuer  = "GROCER_JWT_ISSUER"
	EnvJWTExpMins = "GROCER_JWT_EXPIRATION_MINUTES"

	EnvGoogleMapsAPIKey = "GROCER_GOOGLE_MAPS_API_KEY"

	EnvCheckoutDefaultProfile = "GROCER_CHECKOUT_DEFAULT_FEE_PROFILE"
	EnvStandardWeightRate     = "GROCER_FEE_STANDARD_WEIGHT_RATE"
	EnvStandardWeightLimit    = "GROCER_FEE_STANDARD_WEIGHT_THRESHOLD_KG"
	EnvWholesaleWeightRate    = "GROCER_FEE_WHOLESALE_WEIGHT_RATE"
	EnvWholesaleWeightLimit   = "GROCER_FEE_WHOLESALE_WEIGHT_THRESHOLD_KG"

	EnvGCPProjectID      = "GROCER_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "GROCER_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
