package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spotTargetBot/internal/adapters/logger"
	"spotTargetBot/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Exchange API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// Trading parameters
	Symbol              string
	TargetProfitPercent float64             // e.g. 2.0 for 2%
	Amount              float64             // Quantity committed per position
	AmountUnit          domain.QuantityUnit // base asset or quote currency
	PollInterval        time.Duration       // Monitor polling cadence
	MaxTradesPerDay     int                 // 0 disables the cap

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// Observability
	MetricsAddr string // e.g. ":9090"; empty disables the metrics endpoint
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	if cfg.TelegramToken == "" {
		errs = append(errs, "TELEGRAM_TOKEN must be set")
	}
	cfg.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")
	if cfg.TelegramChatID == "" {
		errs = append(errs, "TELEGRAM_CHAT_ID must be set")
	}

	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.TargetProfitPercent, err = getEnvAsFloatRequired("TARGET_PROFIT_PERCENT", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TARGET_PROFIT_PERCENT: %v", err))
	} else if cfg.TargetProfitPercent <= 0 {
		errs = append(errs, "TARGET_PROFIT_PERCENT must be positive")
	}

	cfg.Amount, err = getEnvAsFloatRequired("AMOUNT", 0.001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMOUNT: %v", err))
	} else if cfg.Amount <= 0 {
		errs = append(errs, "AMOUNT must be positive")
	}

	unit := strings.ToLower(getEnv("AMOUNT_UNIT", string(domain.UnitBase)))
	switch domain.QuantityUnit(unit) {
	case domain.UnitBase, domain.UnitQuote:
		cfg.AmountUnit = domain.QuantityUnit(unit)
	default:
		errs = append(errs, fmt.Sprintf("invalid AMOUNT_UNIT %q (must be %q or %q)", unit, domain.UnitBase, domain.UnitQuote))
	}

	pollMs := getEnvAsInt("POLL_INTERVAL_MS", 500)
	if pollMs <= 0 {
		errs = append(errs, "POLL_INTERVAL_MS must be positive")
	}
	cfg.PollInterval = time.Duration(pollMs) * time.Millisecond

	cfg.MaxTradesPerDay = getEnvAsInt("MAX_TRADES_PER_DAY", 0)
	if cfg.MaxTradesPerDay < 0 {
		errs = append(errs, "MAX_TRADES_PER_DAY cannot be negative")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/trades.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
