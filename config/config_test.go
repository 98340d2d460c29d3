package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Uploads:  UploadsConfig{PublicDir: "./public", MaxFiles: 5},
		Database: DatabaseConfig{Host: "localhost"},
		Auth:     AuthConfig{Provider: AuthProviderJWT, JWTSecret: "secret"},
		Email:    EmailConfig{Type: EmailTypeDev},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "PORT"},
		{name: "no database", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DB_DSN"},
		{
			name:   "dsn only",
			mutate: func(c *Config) {
				c.Database.Host = ""
				c.Database.DSN = "postgres://x"
			},
		},
		{name: "zero max files", mutate: func(c *Config) { c.Uploads.MaxFiles = 0 }, wantErr: "UPLOAD_MAX_FILES"},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{
			name:    "firebase without credentials",
			mutate:  func(c *Config) { c.Auth.Provider = AuthProviderFirebase },
			wantErr: "FIREBASE_CREDENTIALS_PATH",
		},
		{name: "unknown provider", mutate: func(c *Config) { c.Auth.Provider = "ldap" }, wantErr: "AUTH_PROVIDER"},
		{name: "smtp without host", mutate: func(c *Config) { c.Email.Type = EmailTypeSMTP }, wantErr: "SMTP_HOST"},
		{name: "unknown email type", mutate: func(c *Config) { c.Email.Type = "pigeon" }, wantErr: "EMAIL_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "app", Password: "pw", Name: "campushub", SSLMode: "require"}
	assert.Equal(t, "postgres://app:pw@db:5433/campushub?sslmode=require", d.PostgresDSN())

	d.DSN = "postgres://override"
	assert.Equal(t, "postgres://override", d.PostgresDSN())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("UPLOAD_MAX_FILES", "3")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("EMAIL_TYPE", "DEV")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 3, cfg.Uploads.MaxFiles)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, EmailTypeDev, cfg.Email.Type)
	assert.Equal(t, "./public/staging", cfg.Uploads.StagingDir)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}
