package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GoogleMaps    GoogleMapsConfig
	Distance      DistanceConfig
	Checkout      CheckoutConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.Validate(); err != nil {
		return nil, fmt.Errorf("checkout config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"GROCER_APP_ENV" required:"true"`
	Port         string   `envconfig:"GROCER_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"GROCER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GROCER_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"GROCER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GROCER_DB_DSN"`
	Driver string `envconfig:"GROCER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GROCER_DB_HOST"`
	LegacyPort     int    `envconfig:"GROCER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROCER_DB_USER"`
	LegacyPassword string `envconfig:"GROCER_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROCER_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROCER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROCER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROCER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROCER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROCER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROCER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROCER_REDIS_ADDR"`
	Password     string        `envconfig:"GROCER_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROCER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROCER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROCER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROCER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROCER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROCER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GROCER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GROCER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GROCER_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GROCER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GROCER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GROCER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GROCER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GROCER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GROCER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GROCER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GROCER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GROCER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GROCER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GROCER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROCER_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey       string `envconfig:"GROCER_GOOGLE_MAPS_API_KEY"`
	RegionCode   string `envconfig:"GROCER_GOOGLE_MAPS_REGION" default:"US"`
	LanguageCode string `envconfig:"GROCER_GOOGLE_MAPS_LANGUAGE" default:"en"`
}

// DistanceConfig tunes the geocoding/route lookups that feed the delivery fee.
type DistanceConfig struct {
	CacheTTL    time.Duration `envconfig:"GROCER_DISTANCE_CACHE_TTL" default:"24h"`
	MaxRetries  uint64        `envconfig:"GROCER_DISTANCE_MAX_RETRIES" default:"2"`
	RetryBase   time.Duration `envconfig:"GROCER_DISTANCE_RETRY_BASE" default:"200ms"`
	LookupLimit time.Duration `envconfig:"GROCER_DISTANCE_LOOKUP_TIMEOUT" default:"8s"`
}

// FeeProfileConfig holds the tunable constants of one fee profile.
type FeeProfileConfig struct {
	PerUnitLabor      decimal.Decimal
	WeightRate        decimal.Decimal
	WeightThresholdKg decimal.Decimal
	QuantityThreshold int
	BaseRatePerKm     decimal.Decimal
	HeavyRatePerKm    decimal.Decimal
}

type standardProfileConfig struct {
	PerUnitLabor      decimal.Decimal `envconfig:"GROCER_FEE_STANDARD_PER_UNIT_LABOR" default:"0.25"`
	WeightRate        decimal.Decimal `envconfig:"GROCER_FEE_STANDARD_WEIGHT_RATE" default:"0.25"`
	WeightThresholdKg decimal.Decimal `envconfig:"GROCER_FEE_STANDARD_WEIGHT_THRESHOLD_KG" default:"30"`
	QuantityThreshold int             `envconfig:"GROCER_FEE_STANDARD_QUANTITY_THRESHOLD" default:"100"`
	BaseRatePerKm     decimal.Decimal `envconfig:"GROCER_FEE_STANDARD_BASE_RATE_PER_KM" default:"2"`
	HeavyRatePerKm    decimal.Decimal `envconfig:"GROCER_FEE_STANDARD_HEAVY_RATE_PER_KM" default:"4"`
}

type wholesaleProfileConfig struct {
	PerUnitLabor      decimal.Decimal `envconfig:"GROCER_FEE_WHOLESALE_PER_UNIT_LABOR" default:"0.25"`
	WeightRate        decimal.Decimal `envconfig:"GROCER_FEE_WHOLESALE_WEIGHT_RATE" default:"0.03"`
	WeightThresholdKg decimal.Decimal `envconfig:"GROCER_FEE_WHOLESALE_WEIGHT_THRESHOLD_KG" default:"150"`
	QuantityThreshold int             `envconfig:"GROCER_FEE_WHOLESALE_QUANTITY_THRESHOLD" default:"100"`
	BaseRatePerKm     decimal.Decimal `envconfig:"GROCER_FEE_WHOLESALE_BASE_RATE_PER_KM" default:"2"`
	HeavyRatePerKm    decimal.Decimal `envconfig:"GROCER_FEE_WHOLESALE_HEAVY_RATE_PER_KM" default:"4"`
}

type CheckoutConfig struct {
	DefaultFeeProfile string        `envconfig:"GROCER_CHECKOUT_DEFAULT_FEE_PROFILE" default:"standard"`
	SessionCartTTL    time.Duration `envconfig:"GROCER_CHECKOUT_SESSION_CART_TTL" default:"72h"`
	Standard          standardProfileConfig
	Wholesale         wholesaleProfileConfig
}

// StandardProfile returns the standard profile constants.
func (c CheckoutConfig) StandardProfile() FeeProfileConfig {
	return FeeProfileConfig(c.Standard)
}

// WholesaleProfile returns the wholesale profile constants.
func (c CheckoutConfig) WholesaleProfile() FeeProfileConfig {
	return FeeProfileConfig(c.Wholesale)
}

// Validate reports every invalid profile constant at once.
func (c CheckoutConfig) Validate() error {
	var err error
	switch strings.ToLower(strings.TrimSpace(c.DefaultFeeProfile)) {
	case "standard", "wholesale":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown default fee profile %q", c.DefaultFeeProfile))
	}
	err = multierr.Append(err, c.StandardProfile().validate("standard"))
	err = multierr.Append(err, c.WholesaleProfile().validate("wholesale"))
	return err
}

func (p FeeProfileConfig) validate(name string) error {
	var err error
	for field, value := range map[string]decimal.Decimal{
		"per unit labor":    p.PerUnitLabor,
		"weight rate":       p.WeightRate,
		"weight threshold":  p.WeightThresholdKg,
		"base rate per km":  p.BaseRatePerKm,
		"heavy rate per km": p.HeavyRatePerKm,
	} {
		if value.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("%s profile: %s must be non-negative", name, field))
		}
	}
	if p.QuantityThreshold < 0 {
		err = multierr.Append(err, fmt.Errorf("%s profile: quantity threshold must be non-negative", name))
	}
	return err
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GROCER_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GROCER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GROCER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"GROCER_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
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
