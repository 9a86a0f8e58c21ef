package config

import (
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/asteroid-bot/asteroid/src/asteroid/data"
)

type Config struct {
	Token      string
	MySQLDSN   string
	RedisURL   string
	Port       string
	JWTSecret  string
	AdminToken string
}

func Load(db *gorm.DB) Config {
	// Load settings from database
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	// Get values from database with env fallbacks
	discordToken := data.GetSetting("discord_token")
	if discordToken == "" {
		discordToken = os.Getenv("DISCORD_TOKEN")
	}

	jwtSecret := data.GetSetting("jwt_secret")
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}

	adminToken := data.GetSetting("admin_token")
	if adminToken == "" {
		adminToken = os.Getenv("ADMIN_TOKEN")
	}

	return Config{
		Token:      discordToken,
		JWTSecret:  jwtSecret,
		AdminToken: adminToken,
		MySQLDSN:   getenv("MYSQL_DSN", "asteroid:asteroid@tcp(127.0.0.1:3306)/asteroid"),
		RedisURL:   getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		Port:       getenv("PORT", "8080"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
