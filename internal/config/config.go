package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	BatchPageSize int

	WatchIntervalSec int
	WatchAutoExport  bool

	NotifyEnabled   bool
	NotifyRecipient string
	NotifySender    string
	NotifySubject   string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "labqc.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		BatchPageSize: getEnvInt("BATCH_PAGE_SIZE", 200),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 300),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", false),

		NotifyEnabled:   getEnvBool("NOTIFY_ENABLED", false),
		NotifyRecipient: getEnv("NOTIFY_RECIPIENT", ""),
		NotifySender:    getEnv("NOTIFY_SENDER", ""),
		NotifySubject:   getEnv("NOTIFY_SUBJECT", "Alerte non-conformité"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
	}

	if cfg.BatchPageSize < 1 {
		cfg.BatchPageSize = 200
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
