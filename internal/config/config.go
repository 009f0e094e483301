// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	BaseURL string `mapstructure:"base_url"`
	Addr    string `mapstructure:"addr"`
	Database struct {
		URL     string `mapstructure:"url"`
		Migrate bool   `mapstructure:"migrate"`
	} `mapstructure:"database"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Security struct {
		RequestID struct {
			TrustHeader bool `mapstructure:"trust_header"`
		} `mapstructure:"request_id"`
		Session struct {
			TTL             time.Duration `mapstructure:"ttl"`
			SweeperInterval time.Duration `mapstructure:"sweeper_interval"`
			CookieSecure    bool          `mapstructure:"cookie_secure"`
			SameSite        string        `mapstructure:"same_site"`
		} `mapstructure:"session"`
		MFA struct {
			LocalRequired bool   `mapstructure:"local_required"`
			Issuer        string `mapstructure:"issuer"`
		} `mapstructure:"mfa"`
		RateLimit struct {
			Enabled           bool          `mapstructure:"enabled"`
			RequestsPerMinute int           `mapstructure:"rpm"`
			Burst             int           `mapstructure:"burst"`
			TTL               time.Duration `mapstructure:"ttl"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"security"`
	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Storage struct {
		Driver    string `mapstructure:"driver"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
		PublicURL string `mapstructure:"public_url"`
	} `mapstructure:"storage"`
	Push struct {
		ProjectID          string `mapstructure:"project_id"`
		ServiceAccountFile string `mapstructure:"service_account_file"`
		ServiceAccountJSON string `mapstructure:"service_account_json"`
	} `mapstructure:"push"`
	Feed struct {
		BroadcastFallback bool          `mapstructure:"broadcast_fallback"`
		LookupTTL         time.Duration `mapstructure:"lookup_ttl"`
	} `mapstructure:"feed"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
}

// PushEnabled reports whether FCM credentials were supplied.
func (c Config) PushEnabled() bool {
	return c.Push.ProjectID != "" && (c.Push.ServiceAccountFile != "" || c.Push.ServiceAccountJSON != "")
}

// Load reads .env, config.yaml and the environment. It panics on an invalid configuration.
func Load() Config {
	_ = godotenv.Load()
	c, err := load(viper.New(), ".", "..")
	if err != nil {
		panic("config error: " + err.Error())
	}
	return c
}

func load(v *viper.Viper, paths ...string) (Config, error) {
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("database.migrate", false)
	// Sensible logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	// Security defaults
	v.SetDefault("security.request_id.trust_header", false)
	v.SetDefault("security.session.ttl", "12h")
	v.SetDefault("security.session.sweeper_interval", "5m")
	v.SetDefault("security.session.cookie_secure", false)
	v.SetDefault("security.session.same_site", "lax")
	v.SetDefault("security.mfa.local_required", false)
	v.SetDefault("security.mfa.issuer", "Technician CMMS")
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.rpm", 120)
	v.SetDefault("security.rate_limit.burst", 60)
	v.SetDefault("security.rate_limit.ttl", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "work-order-photos")
	v.SetDefault("feed.broadcast_fallback", true)
	v.SetDefault("feed.lookup_ttl", "5m")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// explicit bindings
	_ = v.BindEnv("base_url", "BASE_URL")
	_ = v.BindEnv("addr", "ADDR")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("database.migrate", "DATABASE_MIGRATE")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("security.request_id.trust_header", "REQUEST_ID_TRUST_HEADER")
	_ = v.BindEnv("security.session.ttl", "SESSION_TTL")
	_ = v.BindEnv("security.session.sweeper_interval", "SESSION_SWEEPER_INTERVAL")
	_ = v.BindEnv("security.session.cookie_secure", "SESSION_COOKIE_SECURE")
	_ = v.BindEnv("security.session.same_site", "SESSION_SAME_SITE")
	_ = v.BindEnv("security.mfa.local_required", "MFA_LOCAL_REQUIRED")
	_ = v.BindEnv("security.rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("security.rate_limit.rpm", "RATE_LIMIT_RPM")
	_ = v.BindEnv("security.rate_limit.burst", "RATE_LIMIT_BURST")
	_ = v.BindEnv("security.rate_limit.ttl", "RATE_LIMIT_TTL")
	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	_ = v.BindEnv("storage.region", "STORAGE_REGION")
	_ = v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	_ = v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	_ = v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	_ = v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	_ = v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	_ = v.BindEnv("push.project_id", "FCM_PROJECT_ID")
	_ = v.BindEnv("push.service_account_file", "FCM_SERVICE_ACCOUNT_FILE")
	_ = v.BindEnv("push.service_account_json", "FCM_SERVICE_ACCOUNT_JSON")
	_ = v.BindEnv("feed.broadcast_fallback", "FEED_BROADCAST_FALLBACK")
	_ = v.BindEnv("feed.lookup_ttl", "FEED_LOOKUP_TTL")
	_ = v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	// CORS_ALLOWED_ORIGINS arrives as one comma-separated string.
	c.CORS.AllowedOrigins = splitList(strings.Join(c.CORS.AllowedOrigins, ","))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.BaseURL == "" {
		return Config{}, errors.New("base_url/BASE_URL required")
	}
	if c.Database.URL == "" {
		return Config{}, errors.New("database.url/DATABASE_URL required")
	}
	return c, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
