package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-amm/internal/constants"
	"github.com/gagliardetto/solana-go"
)

const (
	CustodyMemory = "memory"
	CustodyRedis  = "redis"
)

type Config struct {
	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// AMM settings
	ProgramID      string
	FeeBasisPoints int
	AuthorityKey   string // base58, JSON array, or path to a keygen file
	AutoInit       bool   // initialize the AMM at startup instead of via the API

	// Custody backend: memory | redis
	CustodyBackend   string
	SettleMaxRetries int

	// Redis settings
	RedisAddr string
	RedisDB   int

	// Event sinks
	EventsEnabled bool

	// ClickHouse settings (optional event history)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP settings
	HTTPTimeout    time.Duration
	WriteRateLimit float64 // requests/sec per client on state-changing routes
	WriteBurst     int
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// AMM
		ProgramID:      getEnv("AMM_PROGRAM_ID", constants.DefaultProgramID),
		FeeBasisPoints: getIntEnv("AMM_FEE_BPS", 30),
		AuthorityKey:   getEnv("AMM_AUTHORITY_KEY", ""),
		AutoInit:       getBoolEnv("AMM_AUTO_INIT", true),

		// Custody
		CustodyBackend:   strings.ToLower(getEnv("CUSTODY_BACKEND", CustodyMemory)),
		SettleMaxRetries: getIntEnv("SETTLE_MAX_RETRIES", constants.DefaultSettleRetries),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getIntEnv("REDIS_DB", 0),

		// Events
		EventsEnabled: getBoolEnv("EVENTS_ENABLED", false),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		WriteRateLimit: getFloatEnv("WRITE_RATE_LIMIT", 5),
		WriteBurst:     getIntEnv("WRITE_BURST", 10),
	}
}

// Validate checks the values that would otherwise fail deep inside startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.ProgramID); err != nil {
		return fmt.Errorf("AMM_PROGRAM_ID: %w", err)
	}
	if c.FeeBasisPoints < 0 || c.FeeBasisPoints > constants.MaxFeeBasisPoints {
		return fmt.Errorf("AMM_FEE_BPS must be within [0, %d], got %d", constants.MaxFeeBasisPoints, c.FeeBasisPoints)
	}
	if c.AuthorityKey == "" && !c.DevMode {
		return fmt.Errorf("AMM_AUTHORITY_KEY is required outside dev mode")
	}
	switch c.CustodyBackend {
	case CustodyMemory:
	case CustodyRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for redis custody")
		}
	default:
		return fmt.Errorf("CUSTODY_BACKEND must be %q or %q, got %q", CustodyMemory, CustodyRedis, c.CustodyBackend)
	}
	if c.SettleMaxRetries <= 0 {
		return fmt.Errorf("SETTLE_MAX_RETRIES must be positive")
	}
	if c.WriteRateLimit < 0 || (c.WriteRateLimit > 0 && c.WriteBurst <= 0) {
		return fmt.Errorf("WRITE_RATE_LIMIT must be >= 0 with a positive WRITE_BURST")
	}
	if c.EventsEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when EVENTS_ENABLED is set")
	}
	return nil
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.CustodyBackend == CustodyRedis || c.EventsEnabled
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
