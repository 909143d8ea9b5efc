// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve in minimal containers

	"github.com/chancat/channel-catalog-go/internal/db"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Telegram  TelegramConfig
	Collector CollectorConfig
	Digest    DigestConfig
	Ranking   RankingConfig
	Catalog   CatalogConfig
	Worker    WorkerConfig
	Admin     AdminConfig
	Logging   LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	GinMode         string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// Pool converts the section into the db package's pool settings.
func (c DatabaseConfig) Pool() *db.Config {
	return &db.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Name,
		SSLMode:         c.SSLMode,
		MaxConns:        int32(c.MaxConnections),
		MinConns:        int32(c.MinConnections),
		MaxConnLifetime: c.MaxLifetime,
		MaxConnIdleTime: c.MaxIdleTime,
	}
}

// RedisConfig contains the Redis URL shared by the task queue and the channel lock.
type RedisConfig struct {
	URL string
}

// RabbitMQConfig contains the digest exchange settings.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled    bool
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// URL renders the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// TelegramConfig contains MTProto credentials for the collector session and the report bot.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type TelegramConfig struct {
	AppID         int
	AppHash       string
	SessionFile   string
	BotToken      string
	BotSession    string
	ReportChannel string
	ProxyAddr     string
	ProxyUser     string
	ProxyPassword string
	Retries       int
	Timeout       time.Duration
}

// CollectorConfig controls the collection cycle.
type CollectorConfig struct {
	Pause    time.Duration
	Window   time.Duration
	Schedule string
	Timezone string
	LockTTL  time.Duration
}

// DigestConfig controls the scheduled digest.
type DigestConfig struct {
	Limit    int
	Schedule string
	Timezone string
	Pause    time.Duration
}

// RankingConfig holds the ranking thresholds.
type RankingConfig struct {
	DefaultLimit         int
	MinGrowthSubscribers int64
	SmallChannelMax      int64
}

// CatalogConfig holds submission rules.
type CatalogConfig struct {
	MaxChannelsPerSubmitter int
}

// WorkerConfig sizes the background task server.
type WorkerConfig struct {
	Concurrency int
}

// AdminConfig holds the raw administrator allow-list.
type AdminConfig struct {
	IDs string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("CATALOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	if _, err := ParseAdminIDs(c.Admin.IDs); err != nil {
		errs = append(errs, err)
	}
	if c.Collector.Pause <= 0 {
		errs = append(errs, errors.New("collector.pause must be positive"))
	}
	if c.Collector.Window <= 0 {
		errs = append(errs, errors.New("collector.window must be positive"))
	}
	if c.Ranking.DefaultLimit < 1 || c.Ranking.DefaultLimit > 100 {
		errs = append(errs, fmt.Errorf("ranking.defaultlimit %d out of range 1..100", c.Ranking.DefaultLimit))
	}
	if c.Ranking.MinGrowthSubscribers <= 0 {
		errs = append(errs, errors.New("ranking.mingrowthsubscribers must be positive"))
	}
	if c.Ranking.SmallChannelMax <= 0 {
		errs = append(errs, errors.New("ranking.smallchannelmax must be positive"))
	}
	if c.Catalog.MaxChannelsPerSubmitter <= 0 {
		errs = append(errs, errors.New("catalog.maxchannelspersubmitter must be positive"))
	}
	for key, name := range map[string]string{
		"collector.timezone": c.Collector.Timezone,
		"digest.timezone":    c.Digest.Timezone,
	} {
		if _, err := time.LoadLocation(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

// Admins returns the parsed administrator allow-list. Load has already
// validated it, so the error is only possible on a hand-built Config.
func (c *Config) Admins() (AdminSet, error) {
	return ParseAdminIDs(c.Admin.IDs)
}

// CollectorLocation returns the zone that defines a snapshot's calendar day.
func (c *Config) CollectorLocation() *time.Location {
	return mustLocation(c.Collector.Timezone)
}

// DigestLocation returns the zone the digest schedule and headings use.
func (c *Config) DigestLocation() *time.Location {
	return mustLocation(c.Digest.Timezone)
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.ginmode", "release")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "channel_catalog")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "catalog.digests")
	viper.SetDefault("rabbitmq.queue", "catalog.digests.weekly")
	viper.SetDefault("rabbitmq.routingkey", "digest.weekly")

	// Telegram
	viper.SetDefault("telegram.appid", 0)
	viper.SetDefault("telegram.apphash", "")
	viper.SetDefault("telegram.bottoken", "")
	viper.SetDefault("telegram.reportchannel", "")
	viper.SetDefault("telegram.proxyaddr", "")
	viper.SetDefault("telegram.proxyuser", "")
	viper.SetDefault("telegram.proxypassword", "")
	viper.SetDefault("telegram.sessionfile", "collector.session.json")
	viper.SetDefault("telegram.botsession", "bot.session.json")
	viper.SetDefault("telegram.retries", 5)
	viper.SetDefault("telegram.timeout", 30*time.Second)

	// Collector
	viper.SetDefault("collector.pause", 5*time.Second)
	viper.SetDefault("collector.window", 7*24*time.Hour)
	viper.SetDefault("collector.schedule", "@every 30m")
	viper.SetDefault("collector.timezone", "UTC")
	viper.SetDefault("collector.lockttl", 10*time.Minute)

	// Digest
	viper.SetDefault("digest.limit", 100)
	viper.SetDefault("digest.schedule", "0 7 * * 6")
	viper.SetDefault("digest.timezone", "Asia/Vladivostok")
	viper.SetDefault("digest.pause", time.Second)

	// Ranking
	viper.SetDefault("ranking.defaultlimit", 20)
	viper.SetDefault("ranking.mingrowthsubscribers", 100)
	viper.SetDefault("ranking.smallchannelmax", 3000)

	// Catalog
	viper.SetDefault("catalog.maxchannelspersubmitter", 5)

	// Worker
	viper.SetDefault("worker.concurrency", 2)

	// Admin
	viper.SetDefault("admin.ids", "")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
