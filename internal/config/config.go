package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"

	envPrefix      = "TASKMANAGER"
	configPathEnv  = "TASKMANAGER_CONFIG"
	defaultCfgFile = "config.yml"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	Host               string        `mapstructure:"host"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RateLimitRPM       int           `mapstructure:"rate_limit_rpm"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	MaxBackups  int    `mapstructure:"max_backups"`
	Compress    bool   `mapstructure:"compress"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" or "inmemory"
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type WorkerConfig struct {
	StatisticsInterval time.Duration `mapstructure:"statistics_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit_rpm", 100)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_age_days", 7)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.compress", true)

	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "task_manager")

	v.SetDefault("worker.statistics_interval", time.Minute)
}

// Load reads defaults, then config.yml (or $TASKMANAGER_CONFIG), then TASKMANAGER_* env vars.
func Load() (*Config, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultCfgFile
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for the postgres repository")
		}
	default:
		return fmt.Errorf("config: unknown repository.type %q", c.Repository.Type)
	}
	if c.Server.Port == "" {
		return errors.New("config: server.port is required")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
