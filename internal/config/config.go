package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	NATS     NATSConfig
	Store    StoreConfig
	Sync     SyncConfig
	Admin    AdminConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// NATSConfig holds the real-time bus configuration. Embedded switches to
// the in-process bus for single-node deployments without a NATS server.
type NATSConfig struct {
	URL             string
	VisibilityTopic string
	Embedded        bool
}

// StoreConfig selects the persistence backend. UseMemory runs the engine
// against the in-memory repositories.
type StoreConfig struct {
	UseMemory bool
}

// SyncConfig holds the visibility synchronizer timings
type SyncConfig struct {
	PollIntervalSeconds int
	RecloseDelaySeconds int
}

// AdminConfig holds the seed admin account credentials
type AdminConfig struct {
	Email    string
	Password string
}

// PollInterval returns the reconciliation interval as a duration
func (s SyncConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// RecloseDelay returns the delayed re-close interval as a duration
func (s SyncConfig) RecloseDelay() time.Duration {
	return time.Duration(s.RecloseDelaySeconds) * time.Second
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if the config file is not found, environment variables
		// and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "meue-rewards")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("NATS.URL", "nats://localhost:4222")
	viper.SetDefault("NATS.VisibilityTopic", "raffles.visibility")
	viper.SetDefault("NATS.Embedded", false)
	viper.SetDefault("Store.UseMemory", false)
	viper.SetDefault("Sync.PollIntervalSeconds", 30)
	viper.SetDefault("Sync.RecloseDelaySeconds", 60)
	viper.SetDefault("Admin.Email", "admin@meue.local")
	viper.SetDefault("LogLevel", "info")
}
