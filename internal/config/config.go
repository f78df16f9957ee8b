package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config собирает настройки бота из окружения
type Config struct {
	BotToken      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SheetsURL     string
	AdminID       int64
	WebhookURL    string
	WebhookPath   string
	Port          string
}

// Load читает .env (если есть) и переменные окружения.
// BOT_TOKEN, DATABASE_URL и ADMIN_ID обязательны.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SheetsURL:     os.Getenv("SHEETS_URL"),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		WebhookPath:   getEnv("WEBHOOK_PATH", "/webhook"),
		Port:          getEnv("PORT", "8080"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("переменная окружения BOT_TOKEN не задана")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("переменная окружения DATABASE_URL не задана")
	}

	adminID, err := strconv.ParseInt(os.Getenv("ADMIN_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("некорректный ADMIN_ID: %w", err)
	}
	cfg.AdminID = adminID

	if db := os.Getenv("REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("некорректный REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
