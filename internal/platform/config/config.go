// Package config loads service configuration from defaults, an optional
// config.yaml and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// AuthMode is "session" (bearer session tokens) or "dev" (X-Debug-* headers).
	AuthMode   string `mapstructure:"AUTH_MODE"`
	DevSubject string `mapstructure:"DEV_SUBJECT"`

	Session SessionConfig `mapstructure:",squash"`

	StorageBackend string        `mapstructure:"STORAGE_BACKEND"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDatabase  string        `mapstructure:"MONGO_DATABASE"`
	MigrateOnStart bool          `mapstructure:"MIGRATE_ON_START"`
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	ShutdownGrace  time.Duration `mapstructure:"SHUTDOWN_GRACE"`

	Assets    AssetConfig     `mapstructure:",squash"`
	Directory DirectoryConfig `mapstructure:",squash"`

	AuthRateLimitPerMinute int `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
	// TrustedProxies is a comma-separated list of CIDRs or addresses whose forwarding
	// headers are believed when keying the rate limiter. Empty trusts nobody.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`
}

type SessionConfig struct {
	SigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	Issuer     string        `mapstructure:"SESSION_ISSUER"`
	TTL        time.Duration `mapstructure:"SESSION_TTL"`
	// AdminEmails is a comma-separated list of administrator accounts created at startup
	// with AdminPassword. Seeding is skipped when AdminPassword is empty.
	AdminEmails   string `mapstructure:"ADMIN_EMAILS"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

type AssetConfig struct {
	Backend       string `mapstructure:"ASSET_BACKEND"`
	PublicBaseURL string `mapstructure:"ASSET_PUBLIC_BASE_URL"`
	MaxPhotoBytes int64  `mapstructure:"ASSET_MAX_PHOTO_BYTES"`

	S3Bucket          string        `mapstructure:"S3_BUCKET"`
	S3Region          string        `mapstructure:"S3_REGION"`
	S3Endpoint        string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID     string        `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string        `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3URLExpiry       time.Duration `mapstructure:"S3_URL_EXPIRY"`

	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
}

type DirectoryConfig struct {
	RetryAttempts   int           `mapstructure:"DIRECTORY_RETRY_ATTEMPTS"`
	RetryDelay      time.Duration `mapstructure:"DIRECTORY_RETRY_DELAY"`
	OnExhausted     string        `mapstructure:"DIRECTORY_ON_EXHAUSTED"`
	FallbackOnEmpty bool          `mapstructure:"DIRECTORY_FALLBACK_ON_EMPTY"`
}

var defaults = map[string]any{
	"PORT":      "8080",
	"ENV":       "development",
	"LOG_LEVEL": "info",

	"AUTH_MODE":   "session",
	"DEV_SUBJECT": "dev|local",

	"SESSION_SIGNING_KEY": "",
	"SESSION_ISSUER":      "lawyer-directory-api",
	"SESSION_TTL":         "24h",
	"ADMIN_EMAILS":        "admin@iforum-lawyers.com",
	"ADMIN_PASSWORD":      "",

	"STORAGE_BACKEND":  "memory",
	"DATABASE_URL":     "",
	"MONGO_URI":        "",
	"MONGO_DATABASE":   "lawyer_directory",
	"MIGRATE_ON_START": true,
	"SESSION_BACKEND":  "memory",
	"REDIS_URL":        "",
	"SHUTDOWN_GRACE":   "10s",

	"ASSET_BACKEND":         "memory",
	"ASSET_PUBLIC_BASE_URL": "",
	"ASSET_MAX_PHOTO_BYTES": 5 << 20,
	"S3_BUCKET":             "lawyer-photos",
	"S3_REGION":             "ap-south-1",
	"S3_ENDPOINT":           "",
	"S3_ACCESS_KEY_ID":      "",
	"S3_SECRET_ACCESS_KEY":  "",
	"S3_URL_EXPIRY":         "15m",
	"CLOUDINARY_CLOUD_NAME": "",
	"CLOUDINARY_API_KEY":    "",
	"CLOUDINARY_API_SECRET": "",
	"CLOUDINARY_FOLDER":     "lawyer-photos",

	"DIRECTORY_RETRY_ATTEMPTS":    3,
	"DIRECTORY_RETRY_DELAY":       "1s",
	"DIRECTORY_ON_EXHAUSTED":      "fallback",
	"DIRECTORY_FALLBACK_ON_EMPTY": false,

	"AUTH_RATE_LIMIT_PER_MINUTE": 30,
	"TRUSTED_PROXIES":            "",
}

// Load reads configuration. configPaths are searched for a config.yaml; none is required.
func Load(configPaths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if len(configPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.AuthMode {
	case "session":
		if len(c.Session.SigningKey) < 32 {
			return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes when AUTH_MODE=session")
		}
	case "dev":
	default:
		return fmt.Errorf("AUTH_MODE must be session or dev (got %q)", c.AuthMode)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration (e.g. 24h)")
	}

	switch c.StorageBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory, postgres or mongo (got %q)", c.StorageBackend)
	}

	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory or redis (got %q)", c.SessionBackend)
	}

	switch c.Assets.Backend {
	case "memory":
	case "s3":
		if c.Assets.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when ASSET_BACKEND=s3")
		}
	case "cloudinary":
		if c.Assets.CloudinaryCloudName == "" || c.Assets.CloudinaryAPIKey == "" || c.Assets.CloudinaryAPISecret == "" {
			return fmt.Errorf("missing required env vars: CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("ASSET_BACKEND must be memory, s3 or cloudinary (got %q)", c.Assets.Backend)
	}
	if c.Assets.MaxPhotoBytes <= 0 {
		return fmt.Errorf("ASSET_MAX_PHOTO_BYTES must be positive")
	}

	if c.Directory.RetryAttempts < 1 {
		return fmt.Errorf("DIRECTORY_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Directory.RetryDelay < 0 {
		return fmt.Errorf("DIRECTORY_RETRY_DELAY must not be negative")
	}
	switch c.Directory.OnExhausted {
	case "fallback", "fail":
	default:
		return fmt.Errorf("DIRECTORY_ON_EXHAUSTED must be fallback or fail (got %q)", c.Directory.OnExhausted)
	}
	if c.AuthRateLimitPerMinute < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if _, err := c.TrustedProxyList(); err != nil {
		return err
	}
	return nil
}

// TrustedProxyList parses TRUSTED_PROXIES. Bare addresses become single-host prefixes.
func (c Config) TrustedProxyList() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, e := range strings.Split(c.TrustedProxies, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q is not a CIDR or IP address", e)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// AdminEmailList splits ADMIN_EMAILS into trimmed, lowercased entries.
func (s SessionConfig) AdminEmailList() []string {
	var out []string
	for _, e := range strings.Split(s.AdminEmails, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (c Config) IsProduction() bool { return c.Env == "production" }
