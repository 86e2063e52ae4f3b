package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	AvatarBucket    string

	// Conversation sync tuning.
	ConversationPageSize int
	RefreshDebounce      time.Duration
	ListCacheTTL         time.Duration
	RetryBaseDelay       time.Duration
	RetryAttempts        int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		AvatarBucket:    getEnv("AVATAR_BUCKET", ""),

		ConversationPageSize: getEnvAsInt("CONVERSATION_PAGE_SIZE", 20),
		RefreshDebounce:      getEnvAsDuration("REFRESH_DEBOUNCE_MS", 200),
		ListCacheTTL:         getEnvAsDuration("LIST_CACHE_TTL_MS", 5000),
		RetryBaseDelay:       getEnvAsDuration("RETRY_BASE_DELAY_MS", 500),
		RetryAttempts:        getEnvAsInt("RETRY_ATTEMPTS", 3),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMs)) * time.Millisecond
}
