package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/sheets"
)

var validBackends = []string{"sheets", "memory", "sqlite"}

type Config struct {
	// HTTP Server
	Port               string
	LogLevel           string
	RateLimitPerMinute int
	TrustedProxies     []string

	// Backend selection
	DataBackend   string
	DataDirectory string

	// Database
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	NetWorthSheet            string
	BudgetSheetPrefix        string
	BudgetStartYear          int
	EarningsSheet            string
	OtherIncomeSheet         string

	// Analytics
	MilestoneOrigin    string
	OtherIncomeTaxRate string

	// Sessions
	SessionSecret string
	SessionIssuer string
	AllowedEmails []string

	// Brokerage
	BrokerAPIURL    string
	BrokerAPIKey    string
	BrokerAPISecret string

	// Worker
	SyncInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     splitList(getEnv("TRUSTED_PROXIES", "")),

		DataBackend:   getEnv("DATA_BACKEND", "sheets"),
		DataDirectory: getEnv("DATA_DIRECTORY", "./data/fixtures"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finsight.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finsight"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_ranges"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		NetWorthSheet:            getEnv("NET_WORTH_SHEET", "Net Worth"),
		BudgetSheetPrefix:        getEnv("BUDGET_SHEET_PREFIX", "Monthly Budget"),
		BudgetStartYear:          getEnvInt("BUDGET_START_YEAR", 2023),
		EarningsSheet:            getEnv("EARNINGS_SHEET", "Earnings"),
		OtherIncomeSheet:         getEnv("OTHER_INCOME_SHEET", "Other Income"),

		MilestoneOrigin:    getEnv("MILESTONE_ORIGIN", "Apr 2019"),
		OtherIncomeTaxRate: getEnv("OTHER_INCOME_TAX_RATE", "0.30"),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionIssuer: getEnv("SESSION_ISSUER", ""),
		AllowedEmails: splitList(getEnv("ALLOWED_EMAILS", "")),

		BrokerAPIURL:    getEnv("BROKER_API_URL", "https://api.kite.trade"),
		BrokerAPIKey:    getEnv("BROKER_API_KEY", ""),
		BrokerAPISecret: getEnv("BROKER_API_SECRET", ""),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
	}

	return cfg
}

// Catalog returns the spreadsheet ranges named by the configuration.
func (c *Config) Catalog() sheets.Catalog {
	return sheets.Catalog{
		NetWorthSheet:    c.NetWorthSheet,
		EarningsSheet:    c.EarningsSheet,
		OtherIncomeSheet: c.OtherIncomeSheet,
		BudgetPrefix:     c.BudgetSheetPrefix,
		BudgetStartYear:  c.BudgetStartYear,
	}
}

// Origin parses MILESTONE_ORIGIN.
func (c *Config) Origin() (core.YearMonth, error) {
	return core.ParseMonthLabel(c.MilestoneOrigin)
}

// TaxRate parses OTHER_INCOME_TAX_RATE.
func (c *Config) TaxRate() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.OtherIncomeTaxRate))
}

// AMQPEnabled reports whether refresh messages should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns every problem at once.
// A missing spreadsheet ID is not an error: reads fail per request instead.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "memory":
		if c.DataDirectory == "" {
			errors = append(errors, "data directory cannot be empty when using memory backend")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.BudgetStartYear < 2000 {
		errors = append(errors, fmt.Sprintf("invalid budget start year %d: must be 2000 or later", c.BudgetStartYear))
	}
	if _, err := c.Origin(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid milestone origin '%s': %v", c.MilestoneOrigin, err))
	}
	if rate, err := c.TaxRate(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid other income tax rate '%s': must be a number", c.OtherIncomeTaxRate))
	} else if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		errors = append(errors, fmt.Sprintf("invalid other income tax rate %s: must be between 0 and 1", rate))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
