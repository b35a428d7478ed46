package config

import "time"

// Default values for configuration.
const (
	// Slack API defaults
	DefaultPageSize       = 200
	DefaultRequestTimeout = 60 * time.Second
	DefaultRequestDelay   = 0 * time.Second

	// Export defaults
	DefaultExportDirectory = "archives"

	// Logging defaults
	DefaultLogLevel = "info"
)
