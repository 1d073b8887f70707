package config

import (
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env              string
	HTTPPort         int
	GatewayURL       string
	GatewayAPIKey    string
	GatewayJWTSecret string
	RedisAddr        string
	KafkaBrokers     string
	PageSize         int
	GatewayTimeoutMS int
}

func Load() Config {
	return Config{
		Env:              getenv("APP_ENV", "development"),
		HTTPPort:         getenvInt("HTTP_PORT", 8080),
		GatewayURL:       getenv("GATEWAY_URL", "http://localhost:54321"),
		GatewayAPIKey:    getenv("GATEWAY_API_KEY", ""),
		GatewayJWTSecret: getenv("GATEWAY_JWT_SECRET", "dev-secret"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:     getenv("KAFKA_BROKERS", "localhost:9092"),
		PageSize:         getenvInt("PAGE_SIZE", 10),
		GatewayTimeoutMS: getenvInt("GATEWAY_TIMEOUT_MS", 10000),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
