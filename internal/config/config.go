package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "RESERVA_CONFIG_PATH"

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Storage struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken  string  `yaml:"bot_token"`
		Debug     bool    `yaml:"debug"`
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
		QueueSize int     `yaml:"queue_size"`
		Digest    bool    `yaml:"digest"`
		DigestAt  int     `yaml:"digest_hour"`
	} `yaml:"telegram"`

	HTTP struct {
		Port      int    `yaml:"port"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"http"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Report struct {
		Enabled        bool   `yaml:"enabled"`
		Dir            string `yaml:"dir"`
		ExportOnStart  bool   `yaml:"export_on_start"`
		SendToManagers bool   `yaml:"send_to_managers"`
	} `yaml:"report"`

	Seed struct {
		Path                 string `yaml:"path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"seed"`

	Managers []int64 `yaml:"managers"`
}

// Load reads the YAML config. An empty path falls back to RESERVA_CONFIG_PATH
// and then to configs/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}
	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = "data/reserva.db"
		}
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return &cfg, nil
}

func (c *Config) HTTPAddr() string {
	if c.HTTP.Port <= 0 {
		return ":8080"
	}
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func (c *Config) HealthAddr() string {
	if c.Monitoring.HealthCheckPort <= 0 {
		return ":8081"
	}
	return fmt.Sprintf(":%d", c.Monitoring.HealthCheckPort)
}

func (c *Config) MetricsAddr() string {
	if c.Monitoring.PrometheusPort <= 0 {
		return ":9090"
	}
	return fmt.Sprintf(":%d", c.Monitoring.PrometheusPort)
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupPath() string {
	if c.Backup.Path == "" {
		return "data/backups"
	}
	return c.Backup.Path
}

func (c *Config) SeedWatchInterval() time.Duration {
	if c.Seed.WatchIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Seed.WatchIntervalSeconds) * time.Second
}

func (c *Config) NotifyRate() (perSecond float64, burst int) {
	perSecond, burst = c.Telegram.PerSecond, c.Telegram.Burst
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return perSecond, burst
}

// DigestHour is the local hour of the daily manager digest.
func (c *Config) DigestHour() int {
	if c.Telegram.DigestAt < 0 || c.Telegram.DigestAt > 23 {
		return 9
	}
	return c.Telegram.DigestAt
}
