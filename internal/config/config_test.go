package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setRequired sets the two required env vars and returns a cleanup func.
func setRequired(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SMTP_HOST", "smtp.example.org")
	os.Setenv("SMTP_USERNAME", "reports@example.org")
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SMTP_HOST")
		os.Unsetenv("SMTP_USERNAME")
	})
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port = %d, want %d", cfg.SMTP.Port, 587)
	}
	if cfg.Upload.MaxFileSize != 26214400 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 26214400)
	}
	if cfg.Upload.RetainDir != "uploads" {
		t.Errorf("Upload.RetainDir = %q, want %q", cfg.Upload.RetainDir, "uploads")
	}
	if cfg.Report.Delimiter != "," {
		t.Errorf("Report.Delimiter = %q, want %q", cfg.Report.Delimiter, ",")
	}
	if !cfg.Report.BOM {
		t.Error("Report.BOM = false, want true")
	}
	if cfg.Retention.MaxAgeDays != 90 {
		t.Errorf("Retention.MaxAgeDays = %d, want %d", cfg.Retention.MaxAgeDays, 90)
	}
	if cfg.Retention.CheckInterval != 24*time.Hour {
		t.Errorf("Retention.CheckInterval = %v, want %v", cfg.Retention.CheckInterval, 24*time.Hour)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	setRequired(t)
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("REPORT_FORMAT", "xlsx")
	os.Setenv("RETENTION_MAX_AGE_DAYS", "30")
	os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("REPORT_FORMAT")
		os.Unsetenv("RETENTION_MAX_AGE_DAYS")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Report.Format != "xlsx" {
		t.Errorf("Report.Format = %q, want %q", cfg.Report.Format, "xlsx")
	}
	if cfg.Retention.MaxAgeDays != 30 {
		t.Errorf("Retention.MaxAgeDays = %d, want %d", cfg.Retention.MaxAgeDays, 30)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	os.Setenv("DB_URL", "postgres://localhost/alttest")
	os.Setenv("SMTP_HOST", "smtp.example.org")
	os.Setenv("SMTP_USERNAME", "reports@example.org")
	defer func() {
		os.Unsetenv("DB_URL")
		os.Unsetenv("SMTP_HOST")
		os.Unsetenv("SMTP_USERNAME")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q, want %q", cfg.Database.URL, "postgres://localhost/alttest")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("DB_URL")
	os.Unsetenv("SMTP_HOST")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing required variables")
	}
}

func TestLoad_MissingSender(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SMTP_HOST", "smtp.example.org")
	os.Unsetenv("SMTP_USERNAME")
	os.Unsetenv("SMTP_FROM")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SMTP_HOST")
	}()

	// neither SMTP_FROM nor SMTP_USERNAME set
	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when no sender address is available")
	}
	if !strings.Contains(err.Error(), "SMTP_FROM") {
		t.Errorf("error = %v, want mention of SMTP_FROM", err)
	}
}

func TestLoad_InvalidReportFormat(t *testing.T) {
	setRequired(t)
	os.Setenv("REPORT_FORMAT", "pdf")
	defer os.Unsetenv("REPORT_FORMAT")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for invalid REPORT_FORMAT")
	}
}

func TestLoad_InvalidDelimiter(t *testing.T) {
	setRequired(t)
	os.Setenv("REPORT_CSV_DELIMITER", ";;")
	defer os.Unsetenv("REPORT_CSV_DELIMITER")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for multi-character delimiter")
	}
}

func TestLoad_Duration(t *testing.T) {
	setRequired(t)
	os.Setenv("SERVER_READ_TIMEOUT", "45s")
	os.Setenv("RETENTION_CHECK_INTERVAL", "12h")
	defer func() {
		os.Unsetenv("SERVER_READ_TIMEOUT")
		os.Unsetenv("RETENTION_CHECK_INTERVAL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Retention.CheckInterval != 12*time.Hour {
		t.Errorf("Retention.CheckInterval = %v, want %v", cfg.Retention.CheckInterval, 12*time.Hour)
	}
}

func TestFromAddress(t *testing.T) {
	c := SMTPConfig{Username: "user@example.org"}
	if got := c.FromAddress(); got != "user@example.org" {
		t.Errorf("FromAddress() = %q, want username fallback", got)
	}
	c.From = "noreply@example.org"
	if got := c.FromAddress(); got != "noreply@example.org" {
		t.Errorf("FromAddress() = %q, want explicit From", got)
	}
}

func TestAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 9090}
	if got := c.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", got)
	}
	c.Host = ""
	if got := c.Addr(); got != ":9090" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestString_MasksSecrets(t *testing.T) {
	setRequired(t)
	os.Setenv("SMTP_PASSWORD", "hunter2")
	defer os.Unsetenv("SMTP_PASSWORD")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "postgres://localhost/test") {
		t.Errorf("String() leaks secrets: %s", s)
	}
}
