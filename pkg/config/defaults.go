// Package config provides centralized default values for LedgerLine
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Data layout
	DataRoot     string
	MaxTenants   int
	DefaultCode  string
	MainDatabase string

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	// Session Configuration
	SessionTTL            time.Duration
	SessionHeaderName     string
	SessionCookieName     string
	SessionCleanupEnabled bool

	// Cleanup Intervals
	CleanupInterval       time.Duration
	DBPoolCleanupInterval time.Duration

	// Provisioning
	BaseURL       string
	AdminUsername string
	AdminPassword string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Data layout
	DataRoot = getEnvString("LEDGERLINE_HOME", defaultDataRoot())
	MaxTenants = getEnvInt("MAX_TENANTS", 25)
	DefaultCode = getEnvString("DEFAULT_TENANT_CODE", "default")
	MainDatabase = filepath.Join(DataRoot, "erp_main.db")

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)

	// Sessions
	SessionTTL = time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour
	SessionHeaderName = getEnvString("SESSION_HEADER_NAME", "X-ERP-Session-ID")
	SessionCookieName = getEnvString("SESSION_COOKIE_NAME", "erp_session")
	SessionCleanupEnabled = getEnvBool("SESSION_CLEANUP_ENABLED", true)

	// Cleanup Intervals
	CleanupInterval = time.Duration(getEnvInt("SESSION_CLEANUP_INTERVAL_MINUTES", 15)) * time.Minute
	DBPoolCleanupInterval = time.Duration(getEnvInt("DB_POOL_CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute

	// Provisioning
	BaseURL = getEnvString("BASE_URL", "http://localhost:"+Port)
	AdminUsername = getEnvString("ADMIN_USERNAME", "admin")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
}

func defaultDataRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "ledgerline-server"
	}
	return filepath.Join(homeDir, "ledgerline-server")
}
