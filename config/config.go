// Package config holds the runtime settings of the nodebird server: defaults,
// overlaid by a .env file, the environment and finally command-line flags.
package config

import (
	"errors"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DefaultCookieSecret must be replaced in production
	DefaultCookieSecret = "nodebirdsecret"
)

// OAuthClient is the registration of this site with one OAuth provider.
// A provider whose ClientID is empty is not offered.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

func (c OAuthClient) Enabled() bool { return c.ClientID != "" }

// Config holds runtime settings for the nodebird server.
type Config struct {
	Port int
	Env  string

	// CookieSecret signs the OAuth state cookie
	CookieSecret string

	// DBDriver is "sqlite", "postgres" or "datastore"
	DBDriver    string
	DatabaseURL string

	// DatastoreProject and DatastoreNamespace are used with the datastore driver
	DatastoreProject   string
	DatastoreNamespace string

	// SessionStore is "memory" or "redis"
	SessionStore    string
	RedisURL        string
	SessionLifetime time.Duration
	SecureCookie    bool

	BcryptCost int

	Kakao  OAuthClient
	Google OAuthClient
	Github OAuthClient

	// UploadStore is "local" or "s3"
	UploadStore string
	UploadDir   string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// LoadDefaults populates Config with development defaults
func (c *Config) LoadDefaults() {
	c.Port = 8001
	c.Env = EnvDevelopment
	c.CookieSecret = DefaultCookieSecret
	c.DBDriver = "sqlite"
	c.DatabaseURL = "file:nodebird.db?_pragma=foreign_keys(1)"
	c.SessionStore = "memory"
	c.SessionLifetime = 24 * time.Hour
	c.BcryptCost = 12
	c.Kakao.CallbackURL = "/auth/kakao/callback"
	c.Google.CallbackURL = "/auth/google/callback"
	c.Github.CallbackURL = "/auth/github/callback"
	c.UploadStore = "local"
	c.UploadDir = "uploads"
	c.S3Region = "us-east-1"
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate reports settings that cannot work together
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if c.CookieSecret == "" {
		errs = append(errs, errors.New("COOKIE_SECRET is required"))
	} else if c.IsProduction() && c.CookieSecret == DefaultCookieSecret {
		errs = append(errs, errors.New("COOKIE_SECRET must be changed in production"))
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "datastore":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be sqlite, postgres or datastore"))
	}
	switch c.SessionStore {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, errors.New("SESSION_STORE must be memory or redis"))
	}
	switch c.UploadStore {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when UPLOAD_STORE=s3"))
		}
	default:
		errs = append(errs, errors.New("UPLOAD_STORE must be local or s3"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, the .env file (outside
// production), the environment and the command-line arguments.
func LoadConfig(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
