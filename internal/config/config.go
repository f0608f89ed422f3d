package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	PublicURL       string `mapstructure:"PUBLIC_URL"`
	BlobDriver      string `mapstructure:"BLOB_DRIVER"`
	BlobS3Bucket    string `mapstructure:"BLOB_S3_BUCKET"`
	BlobS3Region    string `mapstructure:"BLOB_S3_REGION"`
	BlobS3Endpoint  string `mapstructure:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `mapstructure:"BLOB_S3_PATH_STYLE"`
	BlobS3AccessKey string `mapstructure:"BLOB_S3_ACCESS_KEY_ID"`
	BlobS3Secret    string `mapstructure:"BLOB_S3_SECRET_ACCESS_KEY"`

	MediaURLTTLSeconds      int    `mapstructure:"MEDIA_URL_TTL_SECONDS"`
	QuestionnaireStore      string `mapstructure:"QUESTIONNAIRE_STORE"`
	QuestionnaireSQLitePath string `mapstructure:"QUESTIONNAIRE_SQLITE_PATH"`
	ExpirationLookaheadDays int    `mapstructure:"EXPIRATION_LOOKAHEAD_DAYS"`
	MigrationsDir           string `mapstructure:"MIGRATIONS_DIR"`

	BodyLimit             string `mapstructure:"BODY_LIMIT"`
	UploadBodyLimit       string `mapstructure:"UPLOAD_BODY_LIMIT"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "CORS_ORIGINS",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"PUBLIC_URL", "BLOB_DRIVER", "BLOB_S3_BUCKET", "BLOB_S3_REGION", "BLOB_S3_ENDPOINT", "BLOB_S3_PATH_STYLE",
	"BLOB_S3_ACCESS_KEY_ID", "BLOB_S3_SECRET_ACCESS_KEY",
	"MEDIA_URL_TTL_SECONDS", "QUESTIONNAIRE_STORE", "QUESTIONNAIRE_SQLITE_PATH",
	"EXPIRATION_LOOKAHEAD_DAYS", "MIGRATIONS_DIR",
	"BODY_LIMIT", "UPLOAD_BODY_LIMIT", "REQUEST_TIMEOUT_SECONDS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BLOB_DRIVER", "memory")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")
	v.SetDefault("MEDIA_URL_TTL_SECONDS", 900)
	v.SetDefault("QUESTIONNAIRE_STORE", "postgres")
	v.SetDefault("QUESTIONNAIRE_SQLITE_PATH", "clinic-questionnaires.db")
	v.SetDefault("EXPIRATION_LOOKAHEAD_DAYS", 30)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_BODY_LIMIT", "30M")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BaseURL is the externally visible origin, used for signed blob links.
func (c *Config) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return "http://localhost:" + c.Port
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// RequestTimeout bounds the handling of one API request. Zero disables it.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// MediaURLTTL is the lifetime of a generated media access URL.
func (c *Config) MediaURLTTL() time.Duration {
	return time.Duration(c.MediaURLTTLSeconds) * time.Second
}

// SigningKey decodes AUTH_SIGNING_KEY. It returns nil when no key is set.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuthSigningKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.AuthSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
	}
	return key, nil
}

// Validate checks that the configuration is safe to run. Outside development
// either AUTH_ISSUER or AUTH_SIGNING_KEY must be set so that JWT
// authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_ISSUER or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	key, err := c.SigningKey()
	if err != nil {
		return err
	}
	if key != nil && len(key) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}

	switch c.BlobDriver {
	case "memory":
	case "s3":
		if c.BlobS3Bucket == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER is \"s3\"")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be \"memory\" or \"s3\", got %q", c.BlobDriver)
	}

	switch c.QuestionnaireStore {
	case "postgres":
	case "sqlite":
		if c.QuestionnaireSQLitePath == "" {
			return fmt.Errorf("QUESTIONNAIRE_SQLITE_PATH is required when QUESTIONNAIRE_STORE is \"sqlite\"")
		}
	default:
		return fmt.Errorf("QUESTIONNAIRE_STORE must be \"postgres\" or \"sqlite\", got %q", c.QuestionnaireStore)
	}

	if c.MediaURLTTLSeconds <= 0 {
		return fmt.Errorf("MEDIA_URL_TTL_SECONDS must be positive, got %d", c.MediaURLTTLSeconds)
	}
	if c.ExpirationLookaheadDays <= 0 {
		return fmt.Errorf("EXPIRATION_LOOKAHEAD_DAYS must be positive, got %d", c.ExpirationLookaheadDays)
	}
	return nil
}
