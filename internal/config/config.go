package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Quiz     QuizConfig
	Notifier NotifierConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins string
}

// BackendConfig points at the learning-platform REST API.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// CacheConfig selects the session cache driver: "redis" or "memory".
type CacheConfig struct {
	Driver string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Level string
	Env   string
}

type QuizConfig struct {
	SubmitFormats []string
	FlowTTL       time.Duration
}

type NotifierConfig struct {
	TTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.timeout", 15)
	v.SetDefault("session.cookie_name", "studyhub_session")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.secure", false)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("quiz.submit_formats", []string{})
	v.SetDefault("quiz.flow_ttl", "6h")
	v.SetDefault("notifier.ttl", "10m")
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	return load(v, false)
}

// LoadConfigFrom reads the given file instead of searching the default paths.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v, true)
}

func load(v *viper.Viper, required bool) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if required || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
			AllowOrigins: v.GetString("server.allow_origins"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimSuffix(v.GetString("backend.base_url"), "/"),
			Timeout: v.GetDuration("backend.timeout") * time.Second,
		},
		Session: SessionConfig{
			CookieName: v.GetString("session.cookie_name"),
			TTL:        v.GetDuration("session.ttl"),
			Secure:     v.GetBool("session.secure"),
		},
		Cache: CacheConfig{
			Driver: strings.ToLower(v.GetString("cache.driver")),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Quiz: QuizConfig{
			SubmitFormats: v.GetStringSlice("quiz.submit_formats"),
			FlowTTL:       v.GetDuration("quiz.flow_ttl"),
		},
		Notifier: NotifierConfig{
			TTL: v.GetDuration("notifier.ttl"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when cache.driver is redis")
		}
	default:
		return fmt.Errorf("unsupported cache driver: %s", c.Cache.Driver)
	}
	return nil
}
