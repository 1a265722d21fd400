package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	Postgres  PostgresConfig  `env:",prefix=POSTGRES_"`
	Redis     RedisConfig     `env:",prefix=REDIS_"`
	JWT       JWTConfig       `env:",prefix=JWT_"`
	Security  SecurityConfig  `env:",prefix=SECURITY_"`
	RateLimit RateLimitConfig `env:",prefix=RATE_LIMIT_"`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Env       string          `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	APIPrefix    string   `env:"API_PREFIX,default=/api"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	URL         string `env:"URL"`
	Host        string `env:"HOST,default=localhost"`
	Port        string `env:"PORT,default=5432"`
	User        string `env:"USER,default=spotlight"`
	Password    string `env:"PASSWORD,default=spotlight_password"`
	DBName      string `env:"DB,default=spotlight_db"`
	SSLMode     string `env:"SSLMODE,default=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE,default=true"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret        string `env:"SECRET,required"`
	RefreshSecret string `env:"REFRESH_SECRET,required"`
	// ExpiresIn is kept as the raw lifetime string ("15m", "1h", "7d").
	ExpiresIn string `env:"EXPIRES_IN,default=1h"`
}

type SecurityConfig struct {
	Argon2Memory      uint32   `env:"ARGON2_MEMORY,default=65536"`
	Argon2Time        uint32   `env:"ARGON2_TIME,default=3"`
	Argon2Parallelism uint8    `env:"ARGON2_PARALLELISM,default=4"`
	PasswordResetTTL  Duration `env:"PASSWORD_RESET_TTL,default=1h"`

	// RefreshTokenRetention is how long an expired refresh token stays readable
	// (and reports REFRESH_TOKEN_EXPIRED) before the sweeper deletes it.
	RefreshTokenRetention Duration `env:"REFRESH_TOKEN_RETENTION,default=30d"`
}

type RateLimitConfig struct {
	Store          string   `env:"STORE,default=redis"`
	GeneralMax     int      `env:"GENERAL_MAX,default=100"`
	GeneralWindow  Duration `env:"GENERAL_WINDOW,default=1m"`
	LoginMax       int      `env:"LOGIN_MAX,default=5"`
	LoginWindow    Duration `env:"LOGIN_WINDOW,default=15m"`
	RegisterMax    int      `env:"REGISTER_MAX,default=3"`
	RegisterWindow Duration `env:"REGISTER_WINDOW,default=1h"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}

// Validate checks invariants envconfig cannot express.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least 32 characters long")
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return fmt.Errorf("JWT_REFRESH_SECRET must differ from JWT_SECRET")
	}

	switch c.RateLimit.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be redis or memory, got %q", c.RateLimit.Store)
	}
	rl := c.RateLimit
	if rl.GeneralMax <= 0 || rl.LoginMax <= 0 || rl.RegisterMax <= 0 {
		return fmt.Errorf("rate limit maximums must be positive")
	}
	if rl.GeneralWindow.Duration <= 0 || rl.LoginWindow.Duration <= 0 || rl.RegisterWindow.Duration <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}

	if c.Security.RefreshTokenRetention.Duration <= 0 {
		return fmt.Errorf("SECURITY_REFRESH_TOKEN_RETENTION must be positive")
	}

	if c.Security.Argon2Parallelism == 0 || c.Security.Argon2Time == 0 {
		return fmt.Errorf("argon2 time and parallelism must be positive")
	}
	if c.Security.Argon2Memory < 8*uint32(c.Security.Argon2Parallelism) {
		return fmt.Errorf("SECURITY_ARGON2_MEMORY must be at least 8 KiB per lane")
	}

	return nil
}
