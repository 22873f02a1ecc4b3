package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	AppID       string
	UserID      string
	Token       string
	Method      string
	Path        string
	Body        string
	Watch       bool
	WatchFor    time.Duration
	MetricsPort int
	ExportPath  string
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("CONSOLECTL_CONFIG", ""),
		"Path to configuration file, empty for defaults plus environment (env: CONSOLECTL_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("CONSOLECTL_CONFIG", ""),
		"Path to configuration file, empty for defaults plus environment (env: CONSOLECTL_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CONSOLECTL_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: CONSOLECTL_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CONSOLECTL_LOG_FORMAT", "text"),
		"Log format: json, text (env: CONSOLECTL_LOG_FORMAT)")

	flag.StringVar(&cfg.AppID, "app",
		getEnv("CONSOLECTL_APP_ID", ""),
		"Application id sent with requests and the realtime subscription (env: CONSOLECTL_APP_ID)")

	flag.StringVar(&cfg.UserID, "user",
		getEnv("CONSOLECTL_USER_ID", ""),
		"User id for the realtime subscription (env: CONSOLECTL_USER_ID)")

	flag.StringVar(&cfg.Token, "token",
		getEnv("CONSOLECTL_TOKEN", ""),
		"Bearer token attached to requests (env: CONSOLECTL_TOKEN)")

	flag.StringVar(&cfg.Method, "method", "GET", "HTTP method for -path")
	flag.StringVar(&cfg.Path, "path", "", "API path to request, e.g. /health")
	flag.StringVar(&cfg.Body, "body", "", "JSON request body for -path")

	flag.BoolVar(&cfg.Watch, "watch", false, "Connect the realtime channel and print events")
	flag.DurationVar(&cfg.WatchFor, "watch-for", 0, "Stop watching after this duration, 0 for until interrupted")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("CONSOLECTL_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: CONSOLECTL_METRICS_PORT)")

	flag.StringVar(&cfg.ExportPath, "export-logs", "", "Write the structured log export to this file on exit")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.Body != "" && !json.Valid([]byte(cfg.Body)) {
		return fmt.Errorf("request body is not valid JSON")
	}

	if !cfg.Validate && cfg.Path == "" && !cfg.Watch {
		return fmt.Errorf("nothing to do: pass -path, -watch, or -validate")
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Console API diagnostic client

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Check backend health
  %s --app=app-1 --path=/health

  # Create a resource with a body
  %s --app=app-1 --method=POST --path=/apps/app-1/actions --body='{"action":"restart"}'

  # Tail realtime events for one minute
  %s --app=app-1 --user=u-1 --watch --watch-for=1m

  # Run against a specific deployment
  export CONSOLECTL_CONFIG=/etc/consolectl/config.yaml
  export CONSOLECTL_TOKEN=$TOKEN
  %s --app=app-1 --path=/apps

  # Validate configuration only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
