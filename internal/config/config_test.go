package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "FEED_URL",
		"LOG_LEVEL", "POLL_INTERVAL_MINUTES", "ADMIN_USERS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := &Config{
		TelegramBotToken:    "test-token",
		DatabasePath:        "./data/bot.db",
		FeedURL:             "https://www.ss.lv/lv/real-estate/flats/riga/rss/",
		FeedBaseURL:         "https://www.ss.lv/lv/real-estate/flats/riga/",
		LogLevel:            "info",
		PollIntervalMinutes: 5,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("FEED_URL", "https://example.test/feed/rss/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POLL_INTERVAL_MINUTES", "15")
	t.Setenv("ADMIN_USERS", "100, 200,,300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DatabasePath != "/tmp/test.db" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if cfg.FeedBaseURL != "https://example.test/feed/" {
		t.Errorf("feed base url = %q", cfg.FeedBaseURL)
	}
	if cfg.PollIntervalMinutes != 15 {
		t.Errorf("poll interval = %d", cfg.PollIntervalMinutes)
	}
	if diff := cmp.Diff([]string{"100", "200", "300"}, cfg.AdminUsers); diff != "" {
		t.Errorf("admin users mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingToken(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestLoadRejectsBadFeedURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("FEED_URL", "https://example.test/feed.xml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for feed URL without /rss/ suffix")
	}
}

func TestLoadRejectsBadInterval(t *testing.T) {
	for _, raw := range []string{"0", "-5", "1441", "abc"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
			t.Setenv("POLL_INTERVAL_MINUTES", raw)

			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	open := &Config{}
	if !open.IsAdmin("anyone") {
		t.Error("empty admin list must permit everyone")
	}

	restricted := &Config{AdminUsers: []string{"100"}}
	if !restricted.IsAdmin("100") {
		t.Error("listed admin rejected")
	}
	if restricted.IsAdmin("200") {
		t.Error("unlisted user permitted")
	}
}
