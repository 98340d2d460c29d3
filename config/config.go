package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Uploads  UploadsConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type UploadsConfig struct {
	// PublicDir is served under /api/public; project and offer files live below it.
	PublicDir     string
	StagingDir    string
	MaxUploadMB   int64
	MaxFiles      int
	StagingMaxAge time.Duration
	SweepSpec     string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret               string
	TokenTTL                time.Duration
	Provider                string
	FirebaseCredentialsPath string
	LoginRatePerMinute      int
	LoginBurst              int
}

type EmailConfig struct {
	Type     string
	From     string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	CodeTTL  time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"

	EmailTypeDev  = "dev"
	EmailTypeSMTP = "smtp"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	publicDir := getEnv("PUBLIC_DIR", "./public")

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:4200"}),
		},
		Uploads: UploadsConfig{
			PublicDir:     publicDir,
			StagingDir:    getEnv("UPLOAD_STAGING_DIR", publicDir+"/staging"),
			MaxUploadMB:   int64(getEnvAsInt("UPLOAD_MAX_MB", 10)),
			MaxFiles:      getEnvAsInt("UPLOAD_MAX_FILES", 5),
			StagingMaxAge: getEnvAsDuration("UPLOAD_STAGING_MAX_AGE", time.Hour),
			SweepSpec:     getEnv("UPLOAD_SWEEP_SPEC", "@every 10m"),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "campushub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET", ""),
			TokenTTL:                getEnvAsDuration("JWT_TTL", 72*time.Hour),
			Provider:                strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
			FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			LoginRatePerMinute:      getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:              getEnvAsInt("LOGIN_BURST", 5),
		},
		Email: EmailConfig{
			Type:     strings.ToLower(getEnv("EMAIL_TYPE", EmailTypeDev)),
			From:     getEnv("EMAIL_FROM", "no-reply@campushub.local"),
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnvAsInt("SMTP_PORT", 587),
			SMTPUser: getEnv("SMTP_USER", ""),
			SMTPPass: getEnv("SMTP_PASSWORD", ""),
			CodeTTL:  getEnvAsDuration("EMAIL_CODE_TTL", 15*time.Minute),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if c.Uploads.PublicDir == "" {
		return fmt.Errorf("PUBLIC_DIR is required")
	}
	if c.Uploads.MaxFiles <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be positive")
	}

	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	case AuthProviderFirebase:
		if c.Auth.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.Auth.Provider)
	}

	switch c.Email.Type {
	case EmailTypeDev:
	case EmailTypeSMTP:
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_TYPE=smtp")
		}
	default:
		return fmt.Errorf("unknown EMAIL_TYPE %q", c.Email.Type)
	}

	return nil
}

// PostgresDSN returns DB_DSN when set, otherwise a URL assembled from the DB_* parts.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
