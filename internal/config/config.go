// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	SpectatorPort int // 0 disables the spectator endpoint
	LogLevel      string
	LogFormat     string
	LogFile       string
	DatabaseURL   string // empty keeps results in memory
	Seed          int64
	Rounds        int
	Players       int
	MaxHumans     int
	TickRate      int
	TimeLimit     time.Duration
	MapFiles      []string
	RoomName      string
	PlayerName    string
	SettingsFile  string
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory are applied first when the file exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvInt("BOMBMAN_PORT", 9999),
		SpectatorPort: getEnvInt("BOMBMAN_SPECTATOR_PORT", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		LogFile:       getEnv("LOG_FILE", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Seed:          getEnvInt64("BOMBMAN_SEED", time.Now().UnixNano()),
		Rounds:        getEnvInt("BOMBMAN_ROUNDS", 3),
		Players:       getEnvInt("BOMBMAN_PLAYERS", 4),
		MaxHumans:     getEnvInt("BOMBMAN_MAX_HUMANS", 4),
		TickRate:      getEnvInt("BOMBMAN_TICK_RATE", 20),
		TimeLimit:     time.Duration(getEnvInt("BOMBMAN_TIME_LIMIT", 180)) * time.Second,
		MapFiles:      getEnvList("BOMBMAN_MAPS"),
		RoomName:      getEnv("BOMBMAN_ROOM", "Bombman Room"),
		PlayerName:    getEnv("BOMBMAN_NAME", ""),
		SettingsFile:  getEnv("BOMBMAN_SETTINGS", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, skipping empty entries.
func getEnvList(key string) []string {
	var out []string
	start := 0
	v := os.Getenv(key)
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
