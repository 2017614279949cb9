package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Leader    LeaderConfig    `mapstructure:"leader"`
	Instance  InstanceConfig  `mapstructure:"instance"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Workers   WorkersConfig   `mapstructure:"workers"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	Host          string `mapstructure:"host"`
	BroadcastPort int    `mapstructure:"broadcast_port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// SnapshotTTL bounds how long the last published item state is cached.
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InitSchema      bool          `mapstructure:"init_schema"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type LeaderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StorageConfig struct {
	// Driver is "mysql" or "memory".
	Driver string `mapstructure:"driver"`
}

type PublisherConfig struct {
	// Driver is "redis", "nats" or "none".
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WorkersConfig struct {
	Size         int           `mapstructure:"size"`
	QueueLength  int           `mapstructure:"queue_length"`
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.broadcast_port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 24*time.Hour)
	v.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("mysql.init_schema", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("leader.enabled", true)
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "auction-service-1")
	v.SetDefault("scheduler.interval", 30*time.Second)
	v.SetDefault("storage.driver", "mysql")
	v.SetDefault("publisher.driver", "redis")
	v.SetDefault("publisher.timeout", 2*time.Second)
	v.SetDefault("workers.size", 64)
	v.SetDefault("workers.queue_length", 1024)
	v.SetDefault("workers.queue_timeout", 3*time.Second)
}

var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.host":             "SERVER_HOST",
	"server.broadcast_port":   "BROADCAST_PORT",
	"log.level":               "LOG_LEVEL",
	"redis.address":           "REDIS_ADDRESS",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.snapshot_ttl":      "REDIS_SNAPSHOT_TTL",
	"mysql.dsn":               "MYSQL_DSN",
	"mysql.max_open_conns":    "MYSQL_MAX_OPEN_CONNS",
	"mysql.max_idle_conns":    "MYSQL_MAX_IDLE_CONNS",
	"mysql.conn_max_lifetime": "MYSQL_CONN_MAX_LIFETIME",
	"mysql.init_schema":       "MYSQL_INIT_SCHEMA",
	"nats.url":                "NATS_URL",
	"leader.enabled":          "LEADER_ENABLED",
	"leader.ttl":              "LEADER_TTL",
	"instance.id":             "INSTANCE_ID",
	"scheduler.interval":      "SCHEDULER_INTERVAL",
	"storage.driver":          "STORAGE_DRIVER",
	"publisher.driver":        "PUBLISHER_DRIVER",
	"publisher.timeout":       "PUBLISHER_TIMEOUT",
	"workers.size":            "WORKERS_SIZE",
	"workers.queue_length":    "WORKERS_QUEUE_LENGTH",
	"workers.queue_timeout":   "WORKERS_QUEUE_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Configuration file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/auction-marketplace/")

	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path on top of the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Publisher.Driver {
	case "redis", "nats", "none":
	default:
		return fmt.Errorf("unknown publisher driver %q", c.Publisher.Driver)
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	if c.Publisher.Timeout <= 0 {
		return errors.New("publisher timeout must be positive")
	}
	// The lease is refreshed every ttl/3 and stored with millisecond precision.
	if c.Leader.Enabled && c.Leader.TTL < time.Millisecond {
		return errors.New("leader ttl must be at least 1ms")
	}
	if c.Workers.Size <= 0 {
		return errors.New("workers size must be positive")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Storage: %s, Publisher: %s, Instance: %s",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Storage.Driver,
		c.Publisher.Driver,
		c.Instance.ID,
	)
}
