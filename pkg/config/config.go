package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the shop reads.
	EnvPrefix = "NEXYSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NEXYSHOP_DB_DSN"
	EnvDBHost = "NEXYSHOP_DB_HOST"
	EnvDBUser = "NEXYSHOP_DB_USER"
	EnvDBName = "NEXYSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Stripe        StripeConfig
	Codes         CodesConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"NEXYSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"NEXYSHOP_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"NEXYSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"NEXYSHOP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"NEXYSHOP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEXYSHOP_DB_DSN"`
	Driver string `envconfig:"NEXYSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEXYSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"NEXYSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEXYSHOP_DB_USER"`
	LegacyPassword string `envconfig:"NEXYSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEXYSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEXYSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEXYSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEXYSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEXYSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEXYSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEXYSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEXYSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"NEXYSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEXYSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEXYSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEXYSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEXYSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEXYSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEXYSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEXYSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEXYSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEXYSHOP_JWT_EXPIRATION_MINUTES" default:"120"`
	SessionTTLMinutes int    `envconfig:"NEXYSHOP_SESSION_TTL_MINUTES" default:"10080"`
}

// SessionTTL returns the server-side session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEXYSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEXYSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEXYSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEXYSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEXYSHOP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
	RegisterWindow     time.Duration `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1m"`
	RegisterEmailLimit int           `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NEXYSHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"NEXYSHOP_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"NEXYSHOP_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"NEXYSHOP_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CodesConfig carries the symmetric key protecting stored redemption codes.
type CodesConfig struct {
	// EncryptionKey is the base64-encoded 32-byte AES key.
	EncryptionKey string `envconfig:"NEXYSHOP_CODES_ENCRYPTION_KEY" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEXYSHOP_AUTO_MIGRATE" default:"false"`
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
