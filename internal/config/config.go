// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultFeedURL = "https://www.ss.lv/lv/real-estate/flats/riga/rss/"

// Config holds the application configuration.
type Config struct {
	TelegramBotToken    string
	DatabasePath        string
	FeedURL             string
	FeedBaseURL         string
	LogLevel            string
	PollIntervalMinutes int
	AdminUsers          []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	feedURL := os.Getenv("FEED_URL")
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	if !strings.HasSuffix(feedURL, "/rss/") {
		return nil, fmt.Errorf("FEED_URL must end with /rss/, got %q", feedURL)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	interval := 5
	if raw := os.Getenv("POLL_INTERVAL_MINUTES"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1440 {
			return nil, fmt.Errorf("POLL_INTERVAL_MINUTES must be between 1 and 1440, got %q", raw)
		}
		interval = v
	}

	var admins []string
	if raw := os.Getenv("ADMIN_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			admins = append(admins, s)
		}
	}

	return &Config{
		TelegramBotToken:    token,
		DatabasePath:        dbPath,
		FeedURL:             feedURL,
		FeedBaseURL:         strings.TrimSuffix(feedURL, "rss/"),
		LogLevel:            logLevel,
		PollIntervalMinutes: interval,
		AdminUsers:          admins,
	}, nil
}

// IsAdmin checks whether a chat id may view operator reports.
// Returns true if the admin list is empty (all users permitted).
func (c *Config) IsAdmin(chatID string) bool {
	if len(c.AdminUsers) == 0 {
		return true
	}
	for _, id := range c.AdminUsers {
		if id == chatID {
			return true
		}
	}
	return false
}
