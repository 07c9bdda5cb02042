package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"fintool/internal/log"
)

const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"

	ExportMemory = "memory"
	ExportSheets = "sheets"
	ExportExcel  = "excel"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// Records
	RecordSource string `env:"RECORD_SOURCE" envDefault:"json"`
	DataDir      string `env:"DATA_DIR" envDefault:"./finance_data"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/fintool.db"`

	// Export
	ExportBackend            string `env:"EXPORT_BACKEND" envDefault:"memory"`
	ExcelOutputPath          string `env:"EXCEL_OUTPUT_PATH" envDefault:"./reports.xlsx"`
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// AMQP
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"fintool"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"report_exports"`

	// Reports
	ProjectionDays  int           `env:"PROJECTION_DAYS" envDefault:"60"`
	ReportCacheTTL  time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`
	ReportCacheSize int           `env:"REPORT_CACHE_SIZE" envDefault:"64"`

	// Banking provider
	PlaidClientID    string        `env:"PLAID_CLIENT_ID"`
	PlaidSecret      string        `env:"PLAID_SECRET"`
	PlaidEnv         string        `env:"PLAID_ENV" envDefault:"sandbox"`
	PlaidAccessToken string        `env:"PLAID_ACCESS_TOKEN"`
	SyncLookbackDays int           `env:"SYNC_LOOKBACK_DAYS" envDefault:"90"`
	SyncInterval     time.Duration `env:"SYNC_INTERVAL" envDefault:"0s"`

	// Text completion
	GenAIModel   string `env:"GENAI_MODEL" envDefault:"gemini-2.5-flash"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate record source
	validSources := []string{SourceJSON, SourceSQLite}
	if !slices.Contains(validSources, c.RecordSource) {
		errors = append(errors, fmt.Sprintf("invalid record source '%s': must be one of %v", c.RecordSource, validSources))
	}
	if c.RecordSource == SourceJSON && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using json records")
	}
	if c.RecordSource == SourceSQLite {
		errors = append(errors, c.validateSQLitePath()...)
	}

	// Validate export backend
	validBackends := []string{ExportMemory, ExportSheets, ExportExcel}
	if !slices.Contains(validBackends, c.ExportBackend) {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}
	if c.ExportBackend == ExportExcel && c.ExcelOutputPath == "" {
		errors = append(errors, "Excel output path cannot be empty when using excel export")
	}
	if c.ExportBackend == ExportSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate report settings
	if c.ProjectionDays < 1 || c.ProjectionDays > 3660 {
		errors = append(errors, fmt.Sprintf("invalid projection days %d: must be between 1 and 3660", c.ProjectionDays))
	}
	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}

	if c.SyncInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must not be negative", c.SyncInterval))
	}

	if c.PlaidEnv != "sandbox" && c.PlaidEnv != "production" {
		errors = append(errors, fmt.Sprintf("invalid Plaid environment '%s': must be 'sandbox' or 'production'", c.PlaidEnv))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateBanking checks the settings needed to pull from the banking provider.
func (c *Config) ValidateBanking() error {
	var errors []string
	if c.PlaidClientID == "" || c.PlaidSecret == "" {
		errors = append(errors, "PLAID_CLIENT_ID and PLAID_SECRET are required for banking sync")
	}
	if c.PlaidAccessToken == "" {
		errors = append(errors, "PLAID_ACCESS_TOKEN is required for banking sync (exchange a public token first)")
	}
	if c.SyncLookbackDays < 1 || c.SyncLookbackDays > 730 {
		errors = append(errors, fmt.Sprintf("invalid sync lookback %d: must be between 1 and 730 days", c.SyncLookbackDays))
	}
	errors = append(errors, c.validateSQLitePath()...)
	if len(errors) > 0 {
		return fmt.Errorf("banking configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateSQLitePath() []string {
	if c.SQLiteDBPath == "" {
		return []string{"SQLite database path cannot be empty"}
	}
	// Check if directory exists or can be created
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return []string{fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err)}
			}
		}
	}
	return nil
}
