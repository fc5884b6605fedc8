// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Upload    UploadConfig
	Report    ReportConfig
	Retention RetentionConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 120s,
	// long enough for a full dispatch run behind the upload endpoint)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 120s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"120s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	// Host is the SMTP server hostname (required)
	Host string `env:"SMTP_HOST" required:"true"`

	// Port is the SMTP server port (default: 587)
	Port int `env:"SMTP_PORT" default:"587"`

	// Username authenticates against the SMTP server
	Username string `env:"SMTP_USERNAME"`

	// Password authenticates against the SMTP server
	Password string `env:"SMTP_PASSWORD"`

	// From is the sender address on outgoing reports (default: SMTP_USERNAME)
	From string `env:"SMTP_FROM"`
}

// UploadConfig holds attendance file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 25MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"26214400"`

	// RetainDir is where uploaded source files are kept for audit download.
	// Empty disables file retention.
	RetainDir string `env:"UPLOAD_RETAIN_DIR" default:"uploads"`
}

// ReportConfig holds attachment rendering settings.
type ReportConfig struct {
	// Format forces the attachment format: "csv", "xlsx", or "" to infer
	// from the uploaded file's extension (default: "")
	Format string `env:"REPORT_FORMAT"`

	// Delimiter is the CSV field delimiter (default: ",")
	Delimiter string `env:"REPORT_CSV_DELIMITER" default:","`

	// BOM prepends a UTF-8 byte order mark to CSV attachments (default: true)
	BOM bool `env:"REPORT_CSV_BOM" default:"true"`

	// SepHint prepends a "sep=<delim>" line for Excel compatibility (default: false)
	SepHint bool `env:"REPORT_CSV_SEP_HINT" default:"false"`

	// SynonymFile points at a JSON file of department synonym classes.
	// Empty uses the built-in table.
	SynonymFile string `env:"REPORT_SYNONYM_FILE"`
}

// RetentionConfig holds activity log retention settings.
type RetentionConfig struct {
	// MaxAgeDays is how long activity log entries and retained files are kept (default: 90)
	MaxAgeDays int `env:"RETENTION_MAX_AGE_DAYS" default:"90"`

	// CheckInterval is how often the retention sweep runs (default: 24h)
	CheckInterval time.Duration `env:"RETENTION_CHECK_INTERVAL" default:"24h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// FromAddress returns the effective sender address.
func (c *SMTPConfig) FromAddress() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
