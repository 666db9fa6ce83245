package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	SMTP     SMTPConfig
	Payroll  PayrollConfig
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// FixedDeduction is an organisation-wide amount withheld from every receipt.
type FixedDeduction struct {
	Name   string
	Amount decimal.Decimal
}

type PayrollConfig struct {
	// StatutoryRate is a percentage of gross plus bonuses.
	StatutoryRate   decimal.Decimal
	DaysPerMonth    int
	FixedDeductions []FixedDeduction
	Workers         int
	AutoGenerate    bool
	AutoGenerateDay int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       dbPort,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", ""),
		Name:       getEnv("DB_NAME", "hris_payroll"),
		SSLMode:    getEnv("DB_SSL_MODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "payroll.db"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "payroll@localhost"),
		FromName: getEnv("SMTP_FROM_NAME", "Payroll"),
	}

	// Payroll configuration
	rate, err := decimal.NewFromString(getEnv("PAYROLL_STATUTORY_RATE", "9"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_STATUTORY_RATE: %w", err)
	}
	daysPerMonth, err := strconv.Atoi(getEnv("PAYROLL_DAYS_PER_MONTH", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_DAYS_PER_MONTH: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("PAYROLL_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKERS: %w", err)
	}
	fixed, err := ParseFixedDeductions(getEnv("PAYROLL_FIXED_DEDUCTIONS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_FIXED_DEDUCTIONS: %w", err)
	}
	autoGenerate, err := strconv.ParseBool(getEnv("PAYROLL_AUTO_GENERATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_AUTO_GENERATE: %w", err)
	}
	autoGenerateDay, err := strconv.Atoi(getEnv("PAYROLL_AUTO_GENERATE_DAY", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_AUTO_GENERATE_DAY: %w", err)
	}

	config.Payroll = PayrollConfig{
		StatutoryRate:   rate,
		DaysPerMonth:    daysPerMonth,
		FixedDeductions: fixed,
		Workers:         workers,
		AutoGenerate:    autoGenerate,
		AutoGenerateDay: autoGenerateDay,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.StatutoryRate.IsNegative() || c.Payroll.StatutoryRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PAYROLL_STATUTORY_RATE must be between 0 and 100")
	}
	if c.Payroll.DaysPerMonth <= 0 {
		return fmt.Errorf("PAYROLL_DAYS_PER_MONTH must be positive")
	}
	if c.Payroll.Workers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if c.Payroll.AutoGenerateDay < 1 || c.Payroll.AutoGenerateDay > 28 {
		return fmt.Errorf("PAYROLL_AUTO_GENERATE_DAY must be between 1 and 28")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseFixedDeductions reads "name:amount,name:amount".
func ParseFixedDeductions(value string) ([]FixedDeduction, error) {
	var result []FixedDeduction
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, amount, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("expected name:amount, got %q", item)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("amount of %q: %w", name, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("amount of %q must not be negative", name)
		}
		result = append(result, FixedDeduction{Name: strings.TrimSpace(name), Amount: d})
	}
	return result, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string = strings.Split(value, ",")
	return result
}
