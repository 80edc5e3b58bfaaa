package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	DatabaseURL string            `mapstructure:"database_url"`
	ServerPort  string            `mapstructure:"server_port"`
	Storage     string            `mapstructure:"storage"`
	JWTSecret   string            `mapstructure:"jwt_secret"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Invitations InvitationsConfig `mapstructure:"invitations"`
	Email       EmailConfig       `mapstructure:"email"`
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

type AuthConfig struct {
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
}

type InvitationsConfig struct {
	TTL               time.Duration `mapstructure:"ttl"`
	URLTemplate       string        `mapstructure:"url_template"`
	EnforceEmailMatch bool          `mapstructure:"enforce_email_match"`
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Enabled reports whether invitation mail can be sent.
func (c EmailConfig) Enabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowAll       bool     `mapstructure:"allow_all"`
}

type RateLimitConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	LoginLimit int           `mapstructure:"login_limit"`
	Window     time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a YAML file and TICKR_* environment variables.
// An empty path searches "config.yaml" in the current directory and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("tickr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without a file the environment and defaults still apply.
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 0)
	v.SetDefault("invitations.ttl", 7*24*time.Hour)
	v.SetDefault("invitations.url_template", "http://localhost:3000/invitations/%s")
	v.SetDefault("invitations.enforce_email_match", false)
	v.SetDefault("email.from", "")
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allow_all", false)
	v.SetDefault("ratelimit.redis_url", "")
	v.SetDefault("ratelimit.login_limit", 10)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("database_url must be set when storage is %q", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if c.Email.Enabled() && strings.TrimSpace(c.Email.From) == "" {
		return fmt.Errorf("email.from must be set when email.smtp_host is configured")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
