package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Dispatch DispatchConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// APIBaseURL is the externally reachable base of this API, used to build
	// OAuth redirect URIs.
	APIBaseURL string
	// ClientBaseURL is the admin UI origin OAuth callbacks redirect back to.
	ClientBaseURL string
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

// DispatchConfig holds the dispatch engine tuning knobs
type DispatchConfig struct {
	SMSIntervalSeconds    int
	SocialIntervalSeconds int
	BatchSize             int
	SMSRatePerSecond      int
	TokenRefreshHours     int
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
		// A missing config file is fine, environment variables take over
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
	viper.SetDefault("Server.Port", "5000")
	viper.SetDefault("Server.AllowedOrigins", []string{"http://localhost:3000"})
	viper.SetDefault("Server.APIBaseURL", "http://localhost:5000")
	viper.SetDefault("Server.ClientBaseURL", "http://localhost:3000")
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "church-platform")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Dispatch.SMSIntervalSeconds", 30)
	viper.SetDefault("Dispatch.SocialIntervalSeconds", 60)
	viper.SetDefault("Dispatch.BatchSize", 100)
	viper.SetDefault("Dispatch.SMSRatePerSecond", 10)
	viper.SetDefault("Dispatch.TokenRefreshHours", 24)
}
