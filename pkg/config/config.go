package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Relay    RelayConfig    `mapstructure:"relay"`
	Storage  StorageConfig  `mapstructure:"storage"`
	AIWrite  AIWriteConfig  `mapstructure:"aiwrite"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

type RelayConfig struct {
	Addr             string        `mapstructure:"addr"`
	ChatUpstreamURL  string        `mapstructure:"chat_upstream_url"`
	ChatAPIKey       string        `mapstructure:"chat_api_key"`
	ImageUpstreamURL string        `mapstructure:"image_upstream_url"`
	ImageAccessKey   string        `mapstructure:"image_access_key"`
	ImageWidth       int           `mapstructure:"image_width"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is memory, postgres or redis. Left empty it follows DATABASE_URL
	// or REDIS_URL when one is set.
	Driver      string         `mapstructure:"driver"`
	Database    DatabaseConfig `mapstructure:"database"`
	RedisURL    string         `mapstructure:"redis_url"`
	RedisPrefix string         `mapstructure:"redis_prefix"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type AIWriteConfig struct {
	ProxyBaseURL string        `mapstructure:"proxy_base_url"`
	Model        string        `mapstructure:"model"`
	Debounce     time.Duration `mapstructure:"debounce"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	AllowedUserID int64  `mapstructure:"allowed_user_id"`
	// MaxAutoTags caps the tags suggested for notes sent as plain messages.
	MaxAutoTags   int    `mapstructure:"max_auto_tags"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q", u.Port())
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads defaults, then the YAML file at path when it exists, then
// the environment. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("relay.addr", ":8080")
	v.SetDefault("relay.chat_upstream_url", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("relay.chat_api_key", "")
	v.SetDefault("relay.image_upstream_url", "https://api.unsplash.com/photos/random")
	v.SetDefault("relay.image_access_key", "")
	v.SetDefault("relay.image_width", 1920)
	v.SetDefault("relay.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", "")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.user", "postgres")
	v.SetDefault("storage.database.dbname", "stickytab")
	v.SetDefault("storage.database.sslmode", "disable")
	v.SetDefault("storage.redis_prefix", "stickytab")
	v.SetDefault("aiwrite.proxy_base_url", "")
	v.SetDefault("aiwrite.model", "stepfun/step-3.5-flash:free")
	v.SetDefault("aiwrite.debounce", "120ms")
	v.SetDefault("telegram.allowed_user_id", 0)
	v.SetDefault("telegram.max_auto_tags", 5)
	v.SetDefault("log.development", false)

	// Nested keys can be set as RELAY_ADDR, STORAGE_DRIVER and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Storage.Database = dbConfig
		if config.Storage.Driver == "" {
			config.Storage.Driver = "postgres"
		}
	}
	if redisURL := v.GetString("REDIS_URL"); redisURL != "" {
		config.Storage.RedisURL = redisURL
		if config.Storage.Driver == "" {
			config.Storage.Driver = "redis"
		}
	}
	if config.Storage.Driver == "" {
		config.Storage.Driver = "memory"
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if apiKey := v.GetString("OPENROUTER_API_KEY"); apiKey != "" {
		config.Relay.ChatAPIKey = apiKey
	}
	if accessKey := v.GetString("UNSPLASH_ACCESS_KEY"); accessKey != "" {
		config.Relay.ImageAccessKey = accessKey
	}
	if proxy := v.GetString("PROXY_BASE_URL"); proxy != "" {
		config.AIWrite.ProxyBaseURL = proxy
	}
	if port := v.GetString("PORT"); port != "" {
		config.Relay.Addr = ":" + port
	}

	return &config, nil
}
