package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret is only fit for local development.
const DefaultJWTSecret = "your-secret-key-change-in-production"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in release mode")

type Config struct {
	Server    ServerConfig
	Panel     PanelConfig
	Redis     RedisConfig
	Stream    StreamConfig
	Publisher PublisherConfig
	JWT       JWTConfig
	MQTT      MQTTConfig
	Database  DatabaseConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

// PanelConfig controls what the status panel subscribes to and how it renders.
type PanelConfig struct {
	StatusPath   string
	Timezone     string
	VideoFeedURL string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type StreamConfig struct {
	FrameSourceURL string
}

type PublisherConfig struct {
	Interval   time.Duration
	ClientID   string
	SecretHash string
}

type JWTConfig struct {
	Secret string
	Expiry string
}

// UsesDefaultSecret reports whether publisher tokens are signed with the
// built-in development secret.
func (c JWTConfig) UsesDefaultSecret() bool {
	return c.Secret == DefaultJWTSecret
}

// MQTTConfig is optional; an empty Broker disables MQTT ingest.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	StatusTopic string
	QoS         byte
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Panel: PanelConfig{
			StatusPath:   getEnv("STATUS_PATH", "detection_status"),
			Timezone:     getEnv("PANEL_TIMEZONE", "Local"),
			VideoFeedURL: getEnv("VIDEO_FEED_URL", "/video_feed"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", ""),
		},
		Stream: StreamConfig{
			FrameSourceURL: getEnv("FRAME_SOURCE_URL", "http://localhost:5000/video_feed"),
		},
		Publisher: PublisherConfig{
			Interval:   getEnvDuration("PUBLISH_INTERVAL", 2*time.Second),
			ClientID:   getEnv("PUBLISHER_CLIENT_ID", "motion-detector"),
			SecretHash: getEnv("PUBLISHER_SECRET_HASH", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", DefaultJWTSecret),
			Expiry: getEnv("JWT_EXPIRY", "24h"),
		},
		MQTT: MQTTConfig{
			Broker:      getEnv("MQTT_BROKER", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", "motion-monitor"),
			Username:    getEnv("MQTT_USERNAME", ""),
			Password:    getEnv("MQTT_PASSWORD", ""),
			StatusTopic: getEnv("MQTT_STATUS_TOPIC", "motion/detection_status"),
			QoS:         byte(getEnvInt("MQTT_QOS", 1)),
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("HISTORY_ENABLED", "false") == "true",
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "motion_monitor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects settings that are unsafe to serve with. The development
// JWT secret is refused in release mode.
func (c *Config) Validate() error {
	if c.Server.GinMode == "release" && c.JWT.UsesDefaultSecret() {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
