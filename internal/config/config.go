package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Map         MapConfig
	Declutter   DeclutterConfig
	Assistant   AssistantConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	RefreshTopic   string
}

// MapConfig holds the default map view
type MapConfig struct {
	CenterLat   float64
	CenterLng   float64
	InitialZoom int
}

// DeclutterConfig holds marker declutter tuning
type DeclutterConfig struct {
	DetailZoom int
	DetailCap  int
	CoarseCell float64
	MidCell    float64
	FineCell   float64
	CoarseCap  int
	MidCap     int
	FineCap    int
}

// AssistantConfig holds assistant client configuration
type AssistantConfig struct {
	APIKey string
	Model  string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "happyhour"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			RefreshTopic:   getEnv("NATS_REFRESH_TOPIC", "venues.refresh"),
		},
		Map: MapConfig{
			CenterLat:   getEnvAsFloat("MAP_CENTER_LAT", 30.2672),
			CenterLng:   getEnvAsFloat("MAP_CENTER_LNG", -97.7431),
			InitialZoom: getEnvAsInt("MAP_INITIAL_ZOOM", 12),
		},
		Declutter: DeclutterConfig{
			DetailZoom: getEnvAsInt("DECLUTTER_DETAIL_ZOOM", 16),
			DetailCap:  getEnvAsInt("DECLUTTER_DETAIL_CAP", 300),
			CoarseCell: getEnvAsFloat("DECLUTTER_COARSE_CELL", 0.006),
			MidCell:    getEnvAsFloat("DECLUTTER_MID_CELL", 0.003),
			FineCell:   getEnvAsFloat("DECLUTTER_FINE_CELL", 0.0015),
			CoarseCap:  getEnvAsInt("DECLUTTER_COARSE_CAP", 100),
			MidCap:     getEnvAsInt("DECLUTTER_MID_CAP", 150),
			FineCap:    getEnvAsInt("DECLUTTER_FINE_CAP", 200),
		},
		Assistant: AssistantConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Assistant.APIKey == "" && config.Environment != "development" {
		return fmt.Errorf("assistant API key must be set in non-development environments")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
