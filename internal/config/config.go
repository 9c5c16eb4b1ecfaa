package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Sink selector values.
const (
	SinkSheetRange = "sheet-range"
	SinkSheetAuto  = "sheet-auto"
	SinkAppsScript = "apps-script"
	SinkPostgres   = "postgres"
)

// Config holds application configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Sink selection and per-sink targets
	Sink              string
	SpreadsheetID     string
	SheetRange        string
	SheetTab          string
	GoogleCredentials string
	AppsScriptURL     string
	DatabaseURL       string
	SinkTimeout       time.Duration

	// Intake behavior
	DefaultStage      string
	DefaultNotes      string
	ValidationProfile string

	CORSAllowedOrigins []string

	// Operator notification (optional; disabled without an API key)
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmail       string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Sink:              strings.ToLower(strings.TrimSpace(getEnv("SINK", SinkSheetRange))),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		SheetRange:        getEnv("SHEET_RANGE", "Leads"),
		SheetTab:          getEnv("SHEET_TAB", "Leads"),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		AppsScriptURL:     getEnv("APPS_SCRIPT_URL", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SinkTimeout:       getEnvAsDuration("SINK_TIMEOUT", 10*time.Second),

		DefaultStage:      getEnv("DEFAULT_STAGE", "New"),
		DefaultNotes:      getEnv("DEFAULT_NOTES", "Auto-captured from rebuild intake form"),
		ValidationProfile: getEnv("VALIDATION_PROFILE", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Rebuild Intake"),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
	}
}

// Validate checks that the selected sink has the configuration it needs.
// Errors here are configuration errors: the process should refuse to
// start rather than fail every request later.
func (c *Config) Validate() error {
	switch c.Sink {
	case SinkSheetRange:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("config: SPREADSHEET_ID is required for the %s sink", c.Sink)
		}
		if c.SheetRange == "" {
			return fmt.Errorf("config: SHEET_RANGE is required for the %s sink", c.Sink)
		}
	case SinkSheetAuto:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("config: SPREADSHEET_ID is required for the %s sink", c.Sink)
		}
		if c.SheetTab == "" {
			return fmt.Errorf("config: SHEET_TAB is required for the %s sink", c.Sink)
		}
	case SinkAppsScript:
		if c.AppsScriptURL == "" {
			return fmt.Errorf("config: APPS_SCRIPT_URL is required for the %s sink", c.Sink)
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the %s sink", c.Sink)
		}
	default:
		return fmt.Errorf("config: unknown SINK value %q", c.Sink)
	}
	return nil
}

// ProfileName returns the configured validation profile, defaulting to
// extended for the database sink and basic everywhere else.
func (c *Config) ProfileName() string {
	if c.ValidationProfile != "" {
		return c.ValidationProfile
	}
	if c.Sink == SinkPostgres {
		return "extended"
	}
	return "basic"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
