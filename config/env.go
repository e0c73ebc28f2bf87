package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the given files (".env" if none) into the process
// environment, unless running in production.  Variables that are already set
// win over the file.
func LoadDotEnv(files ...string) {
	if envName(os.Getenv) == EnvProduction {
		return
	}
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "err", err)
	}
}

func envName(getenv func(string) string) string {
	if v := getenv("APP_ENV"); v != "" {
		return v
	}
	return getenv("NODE_ENV")
}

// applyEnv overlays the environment variables that are set
func applyEnv(c *Config, getenv func(string) string) error {
	str := func(key string, dest *string) {
		if v := getenv(key); v != "" {
			*dest = v
		}
	}

	if v := envName(getenv); v != "" {
		c.Env = v
	}
	str("COOKIE_SECRET", &c.CookieSecret)
	str("DB_DRIVER", &c.DBDriver)
	str("DATABASE_URL", &c.DatabaseURL)
	str("DATASTORE_PROJECT", &c.DatastoreProject)
	str("DATASTORE_NAMESPACE", &c.DatastoreNamespace)
	str("SESSION_STORE", &c.SessionStore)
	str("REDIS_URL", &c.RedisURL)

	str("KAKAO_ID", &c.Kakao.ClientID)
	str("KAKAO_SECRET", &c.Kakao.ClientSecret)
	str("KAKAO_CALLBACK_URL", &c.Kakao.CallbackURL)
	str("OAUTH2_GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("OAUTH2_GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("OAUTH2_GOOGLE_CALLBACK_URL", &c.Google.CallbackURL)
	str("OAUTH2_GITHUB_CLIENT_ID", &c.Github.ClientID)
	str("OAUTH2_GITHUB_CLIENT_SECRET", &c.Github.ClientSecret)
	str("OAUTH2_GITHUB_CALLBACK_URL", &c.Github.CallbackURL)

	str("UPLOAD_STORE", &c.UploadStore)
	str("UPLOAD_DIR", &c.UploadDir)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_PUBLIC_URL", &c.S3PublicURL)

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST %q: %w", v, err)
		}
		c.BcryptCost = cost
	}
	if v := getenv("SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_LIFETIME %q: %w", v, err)
		}
		c.SessionLifetime = d
	}
	if v := getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIE %q: %w", v, err)
		}
		c.SecureCookie = b
	}
	return nil
}
