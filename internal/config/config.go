package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL     string `yaml:"base_url" env:"SERVER_BASE_URL"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		URL             string `yaml:"url" env:"DATABASE_URL"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Email struct {
		// Provider is one of smtp, resend or log
		Provider     string `yaml:"provider" env:"EMAIL_PROVIDER"`
		FromName     string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
		FromEmail    string `yaml:"from_email" env:"EMAIL_FROM"`
		SMTPHost     string `yaml:"smtp_host" env:"SMTP_HOST"`
		SMTPPort     int    `yaml:"smtp_port" env:"SMTP_PORT"`
		SMTPUsername string `yaml:"smtp_username" env:"SMTP_USERNAME"`
		SMTPPassword string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
		SMTPUseTLS   bool   `yaml:"smtp_use_tls" env:"SMTP_USE_TLS"`
		ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	} `yaml:"email"`

	SMS struct {
		Enabled          bool   `yaml:"enabled" env:"SMS_ENABLED"`
		TwilioAccountSID string `yaml:"twilio_account_sid" env:"TWILIO_ACCOUNT_SID"`
		TwilioAuthToken  string `yaml:"twilio_auth_token" env:"TWILIO_AUTH_TOKEN"`
		FromNumber       string `yaml:"from_number" env:"TWILIO_FROM_NUMBER"`
	} `yaml:"sms"`

	OTP struct {
		TTL string `yaml:"ttl" env:"OTP_TTL"`
	} `yaml:"otp"`

	Cache struct {
		DefaultTTL      string `yaml:"default_ttl" env:"CACHE_DEFAULT_TTL"`
		CleanupInterval string `yaml:"cleanup_interval" env:"CACHE_CLEANUP_INTERVAL"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		// Auth is the number of auth attempts allowed per IP every 15 minutes
		Auth int `yaml:"auth" env:"RATE_LIMIT_AUTH"`
		// Contact is the number of contact submissions allowed per IP per hour
		Contact int `yaml:"contact" env:"RATE_LIMIT_CONTACT"`
		// Public is the number of public requests allowed per IP per minute
		Public int `yaml:"public" env:"RATE_LIMIT_PUBLIC"`
	} `yaml:"rate_limit"`

	Jobs struct {
		Enabled    bool `yaml:"enabled" env:"JOBS_ENABLED"`
		MaxWorkers int  `yaml:"max_workers" env:"JOBS_MAX_WORKERS"`
	} `yaml:"jobs"`

	Metrics struct {
		Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
	} `yaml:"metrics"`

	Seed struct {
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		SampleData    bool   `yaml:"sample_data" env:"SEED_SAMPLE_DATA"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Environment always wins over the file
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.StoragePath = "uploads"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "unievents"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "unievents.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Email.Provider = "log"
	config.Email.FromName = "UniEvents"
	config.Email.FromEmail = "no-reply@unievents.app"
	config.Email.SMTPPort = 587

	config.OTP.TTL = "10m"

	config.Cache.DefaultTTL = "1h"
	config.Cache.CleanupInterval = "10m"

	config.RateLimit.Enabled = true
	config.RateLimit.Auth = 10
	config.RateLimit.Contact = 5
	config.RateLimit.Public = 120

	config.Jobs.MaxWorkers = 5
	config.Metrics.Enabled = true

	config.Seed.AdminEmail = "admin@unievents.app"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	for name, value := range map[string]string{
		"otp ttl":                config.OTP.TTL,
		"cache default ttl":      config.Cache.DefaultTTL,
		"cache cleanup interval": config.Cache.CleanupInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Email.Provider) {
	case "log", "smtp", "resend":
	default:
		return fmt.Errorf("unsupported email provider %q", config.Email.Provider)
	}

	if config.SMS.Enabled && (config.SMS.TwilioAccountSID == "" || config.SMS.TwilioAuthToken == "" || config.SMS.FromNumber == "") {
		return fmt.Errorf("twilio credentials are required when sms is enabled")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Mode) == "production"
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
