package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"go.uber.org/fx"
)

type Config struct {
	AccessToken         string
	Port                string
	VaultLocation       string
	VaultConfigDir      string
	PreferencesFile     string
	MaxArchiveSizeMB    int
	AuditLogEnabled     bool
	AuditLogFilePath    string
	AuditLogSizeLimitMB int
	LogLevel            string
}

func NewConfig() *Config {
	return &Config{
		AccessToken:         getEnv("ACCESS_TOKEN", ""),
		Port:                getEnv("PORT", "8080"),
		VaultLocation:       getEnv("VAULT_LOCATION", "/vault"),
		VaultConfigDir:      getEnv("VAULT_CONFIG_DIR", ".obsidian"),
		PreferencesFile:     getEnv("PREFERENCES_FILE", DefaultPreferencesFile()),
		MaxArchiveSizeMB:    getEnvInt("MAX_ARCHIVE_SIZE_MB", 100),
		AuditLogEnabled:     getEnvBool("AUDIT_LOG_ENABLED", false),
		AuditLogFilePath:    getEnv("AUDIT_LOG_FILE_PATH", "/var/log/vault-importer/audit.jsonl"),
		AuditLogSizeLimitMB: getEnvInt("AUDIT_LOG_SIZE_LIMIT_MB", 100),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

func DefaultPreferencesFile() string {
	return filepath.Join(xdg.ConfigHome, "vault-importer", "preferences.yaml")
}

func (c *Config) MaxArchiveBytes() int64 {
	if c.MaxArchiveSizeMB <= 0 {
		return 0
	}
	return int64(c.MaxArchiveSizeMB) * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

var Module = fx.Options(
	fx.Provide(NewConfig),
)
