// Package config loads process configuration from environment variables and
// the operator-editable settings file. Environment variables cover deployment
// wiring (storage backend, service URLs, ports); the settings file covers the
// recognition tunables an operator adjusts at runtime.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Storage    StorageConfig
	Postgres   PostgresConfig
	Directory  DirectoryConfig
	Recognizer RecognizerConfig
	Web        WebConfig
	MQTT       MQTTConfig

	// SettingsPath points at the YAML settings file. Empty means defaults.
	SettingsPath string
}

type StorageConfig struct {
	Backend    string // "sqlite" (default) or "postgres"
	SQLitePath string // path to the sqlite file (default data/attendance.db)
}

type PostgresConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

// DirectoryConfig points at the company HR database. The sync command reads
// people from it; everything else works without it.
type DirectoryConfig struct {
	DatabaseURL string // MariaDB DSN (e.g. hr:hr@tcp(mariadb:3306)/hr)
}

type RecognizerConfig struct {
	URL    string // recognizer service base URL (e.g. http://localhost:5005)
	Source string // camera source override; empty means the settings camera index
}

type WebConfig struct {
	Host  string // HTTP listen host (default all interfaces)
	Port  int    // HTTP listen port (default 8080)
	Token string // optional bearer token; empty disables auth
}

// MQTTConfig controls attendance announcements. An empty broker URL disables
// publishing entirely.
type MQTTConfig struct {
	BrokerURL string // e.g. tcp://localhost:1883
	Topic     string // default faceattend/attendance
	ClientID  string // default faceattend
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    envString("STORAGE_BACKEND", "sqlite"),
			SQLitePath: envString("SQLITE_PATH", "data/attendance.db"),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Directory: DirectoryConfig{
			DatabaseURL: os.Getenv("DIRECTORY_DATABASE_URL"),
		},
		Recognizer: RecognizerConfig{
			URL:    os.Getenv("RECOGNIZER_URL"),
			Source: os.Getenv("RECOGNIZER_SOURCE"),
		},
		Web: WebConfig{
			Host:  os.Getenv("WEB_HOST"),
			Port:  envInt("WEB_PORT", 8080),
			Token: os.Getenv("WEB_TOKEN"),
		},
		MQTT: MQTTConfig{
			BrokerURL: os.Getenv("MQTT_BROKER_URL"),
			Topic:     envString("MQTT_TOPIC", "faceattend/attendance"),
			ClientID:  envString("MQTT_CLIENT_ID", "faceattend"),
		},
		SettingsPath: envString("SETTINGS_PATH", "data/settings.yaml"),
	}
}
