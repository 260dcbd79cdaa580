package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Quotation QuotationConfig
	Outbox    OutboxConfig
	Cron      CronConfig
	Web       WebConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWeb loads configuration for the front-end process, which never talks to
// the database and never verifies tokens itself.
func LoadWeb() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Web.APIBaseURL) == "" {
		return nil, fmt.Errorf("%s is required", EnvWebAPIBaseURL)
	}
	if !cfg.App.IsNonProduction() && cfg.Web.SessionSecret == defaultWebSessionSecret {
		return nil, fmt.Errorf("%s must be set outside %s", EnvWebSessionSecret, strings.Join(nonProductionEnvs, ", "))
	}
	return &cfg, nil
}

// Validate rejects combinations that must never reach a running process.
func (c *Config) Validate() error {
	mode, err := ParseAuthMode(c.Auth.Mode)
	if err != nil {
		return err
	}
	if mode == AuthModeTrustedHeaders && !c.App.IsNonProduction() {
		return fmt.Errorf("%s=%s is only allowed when %s is one of %s", EnvAuthMode, AuthModeTrustedHeaders, EnvAppEnv, strings.Join(nonProductionEnvs, ", "))
	}
	if _, err := ParseItemPolicy(c.Quotation.ItemPolicy); err != nil {
		return err
	}
	if mode == AuthModeJWT && strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("%s is required when %s=%s", EnvJWTSecret, EnvAuthMode, AuthModeJWT)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"PARTSBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSBRIDGE_APP_PORT" default:"8080"`
	PortRetries  int    `envconfig:"PARTSBRIDGE_APP_PORT_RETRIES" default:"5"`
	LogLevel     string `envconfig:"PARTSBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSBRIDGE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PARTSBRIDGE_CORS_ORIGINS" default:"http://localhost:8090,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// IsNonProduction reports whether the environment is explicitly marked as one
// where development shortcuts are tolerated.
func (a AppConfig) IsNonProduction() bool {
	env := strings.ToLower(strings.TrimSpace(a.Env))
	for _, candidate := range nonProductionEnvs {
		if env == candidate {
			return true
		}
	}
	return false
}

type DBConfig struct {
	DSN string `envconfig:"PARTSBRIDGE_DB_DSN"`

	LegacyHost     string `envconfig:"PARTSBRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"PARTSBRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PARTSBRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"PARTSBRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PARTSBRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PARTSBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	StartupRetries    int           `envconfig:"PARTSBRIDGE_DB_STARTUP_RETRIES" default:"5"`
	StartupRetryDelay time.Duration `envconfig:"PARTSBRIDGE_DB_STARTUP_RETRY_DELAY" default:"2s"`
	AutoMigrate       bool          `envconfig:"PARTSBRIDGE_AUTO_MIGRATE" default:"false"`
	SlowQuery         time.Duration `envconfig:"PARTSBRIDGE_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTSBRIDGE_REDIS_URL" required:"true"`
	Password     string        `envconfig:"PARTSBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTSBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTSBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTSBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTSBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTSBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTSBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"PARTSBRIDGE_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PARTSBRIDGE_JWT_SECRET"`
	Issuer                 string `envconfig:"PARTSBRIDGE_JWT_ISSUER" default:"partsbridge"`
	ExpirationMinutes      int    `envconfig:"PARTSBRIDGE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PARTSBRIDGE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PARTSBRIDGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PARTSBRIDGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PARTSBRIDGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PARTSBRIDGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PARTSBRIDGE_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	Mode string `envconfig:"PARTSBRIDGE_AUTH_MODE" default:"jwt"`
}

type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PARTSBRIDGE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PARTSBRIDGE_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PARTSBRIDGE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PARTSBRIDGE_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PARTSBRIDGE_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PARTSBRIDGE_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	APIRequestsPerMin  int           `envconfig:"PARTSBRIDGE_RATE_LIMIT_API_PER_MINUTE" default:"600"`
}

type QuotationConfig struct {
	ItemPolicy        string `envconfig:"PARTSBRIDGE_QUOTATION_ITEM_POLICY" default:"lenient"`
	DefaultRequiredBy int    `envconfig:"PARTSBRIDGE_QUOTATION_DEFAULT_REQUIRED_BY_DAYS" default:"7"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"PARTSBRIDGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"PARTSBRIDGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"PARTSBRIDGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	ChannelPrefix  string `envconfig:"PARTSBRIDGE_OUTBOX_CHANNEL_PREFIX" default:"partsbridge"`
	RetentionDays  int    `envconfig:"PARTSBRIDGE_OUTBOX_RETENTION_DAYS" default:"14"`
}

type CronConfig struct {
	Interval     time.Duration `envconfig:"PARTSBRIDGE_CRON_INTERVAL" default:"1h"`
	LockTTL      time.Duration `envconfig:"PARTSBRIDGE_CRON_LOCK_TTL" default:"2h"`
	CartIdleDays int           `envconfig:"PARTSBRIDGE_CRON_CART_IDLE_DAYS" default:"30"`
}

const defaultWebSessionSecret = "dev-web-session-secret"

type WebConfig struct {
	Port          string        `envconfig:"PARTSBRIDGE_WEB_PORT" default:"8090"`
	APIBaseURL    string        `envconfig:"PARTSBRIDGE_WEB_API_BASE_URL" default:"http://localhost:8080"`
	APITimeout    time.Duration `envconfig:"PARTSBRIDGE_WEB_API_TIMEOUT" default:"10s"`
	SessionCookie string        `envconfig:"PARTSBRIDGE_WEB_SESSION_COOKIE" default:"pb_session"`
	SessionTTL    time.Duration `envconfig:"PARTSBRIDGE_WEB_SESSION_TTL" default:"12h"`
	SessionSecret string        `envconfig:"PARTSBRIDGE_WEB_SESSION_SECRET" default:"dev-web-session-secret"`
	CookieSecure  bool          `envconfig:"PARTSBRIDGE_WEB_COOKIE_SECURE" default:"false"`
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
