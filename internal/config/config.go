package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBDriver        string // postgres or sqlite
	DBPath          string // sqlite file path
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	QueueWorkers    int
	QueueMaxRetries int
	AIEndpoint      string
	AIAPIKey        string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBPath:          getEnv("DB_PATH", "./social-gateway.db"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "social_gateway"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		QueueWorkers:    getEnvInt("QUEUE_WORKERS", 3),
		QueueMaxRetries: getEnvInt("QUEUE_MAX_RETRIES", 3),
		AIEndpoint:      getEnv("AI_ENDPOINT", ""),
		AIAPIKey:        getEnv("AI_API_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
