package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken   string
	AdminIDs   []int64
	DBPath     string
	HTTPAddr   string
	WebhookURL string

	ModerationEnabled bool
	WrapNavigation    bool
	ShowSellerPhone   bool
}

// Load reads configuration from the environment (.env honored when
// present). Missing required values are boot errors.
func Load() (Config, error) {
	godotenv.Load()

	cfg := Config{
		DBPath:     getEnv("DB_PATH", "./data/market.db"),
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
		WebhookURL: os.Getenv("WEBHOOK_URL"),

		ModerationEnabled: getEnvBool("MODERATION_ENABLED", true),
		WrapNavigation:    getEnvBool("FEED_WRAP", true),
		ShowSellerPhone:   getEnvBool("SHOW_SELLER_PHONE", false),
	}

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("required environment variable BOT_TOKEN is not set")
	}

	adminIDs, err := parseIDList(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}
	if len(adminIDs) == 0 {
		return Config{}, fmt.Errorf("at least one admin ID is required in ADMIN_IDS")
	}
	cfg.AdminIDs = adminIDs

	return cfg, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
