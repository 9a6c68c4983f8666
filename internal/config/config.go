package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                string   `yaml:"port"`
	DatabaseURL         string   `yaml:"database_url"`
	StaticDir           string   `yaml:"static_dir"`
	TargetLength        int      `yaml:"target_length"`
	TimeLimit           int      `yaml:"time_limit"`         // seconds
	HeartbeatInterval   int      `yaml:"heartbeat_interval"` // seconds
	MaxMissedHeartbeats int      `yaml:"max_missed_heartbeats"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

func Defaults() Config {
	return Config{
		Port:                "3000",
		StaticDir:           "public",
		TargetLength:        4,
		TimeLimit:           30,
		HeartbeatInterval:   5,
		MaxMissedHeartbeats: 3,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE, then environment variables.
func Load() Config {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			log.Printf("[Config] ignoring %s: %v\n", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.TargetLength = getEnvInt("TARGET_LENGTH", cfg.TargetLength)
	cfg.TimeLimit = getEnvInt("TIME_LIMIT", cfg.TimeLimit)
	cfg.HeartbeatInterval = getEnvInt("HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.MaxMissedHeartbeats = getEnvInt("MAX_MISSED_HEARTBEATS", cfg.MaxMissedHeartbeats)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	return cfg
}

func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatInterval) * time.Second
}

// mergeFile overlays non-zero values from a YAML file onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Port != "" {
		c.Port = file.Port
	}
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
	}
	if file.StaticDir != "" {
		c.StaticDir = file.StaticDir
	}
	if file.TargetLength > 0 {
		c.TargetLength = file.TargetLength
	}
	if file.TimeLimit > 0 {
		c.TimeLimit = file.TimeLimit
	}
	if file.HeartbeatInterval > 0 {
		c.HeartbeatInterval = file.HeartbeatInterval
	}
	if file.MaxMissedHeartbeats > 0 {
		c.MaxMissedHeartbeats = file.MaxMissedHeartbeats
	}
	if len(file.AllowedOrigins) > 0 {
		c.AllowedOrigins = file.AllowedOrigins
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
