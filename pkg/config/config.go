package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string          `yaml:"driver"`
	Host            string          `yaml:"host"`
	Port            string          `yaml:"port"`
	User            string          `yaml:"user"`
	Password        string          `yaml:"password"`
	DBName          string          `yaml:"name"`
	SSLMode         string          `yaml:"ssl_mode"`
	SQLitePath      string          `yaml:"sqlite_path"`
	MaxIdleConns    int             `yaml:"max_idle_conns"`
	MaxOpenConns    int             `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration   `yaml:"conn_max_lifetime"`
	LogLevel        logger.LogLevel `yaml:"-"`
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	BodyLimit      string   `yaml:"body_limit"`
	RateLimit      float64  `yaml:"rate_limit"`
}

// IsProduction reports whether the server runs with production error output
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	SigningKey   string `yaml:"signing_key"`
	SessionHours int    `yaml:"session_hours"`
	CookieName   string `yaml:"cookie_name"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// SessionTTL returns how long a freshly created session stays valid
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionHours) * time.Hour
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string `yaml:"prefix"`
}

// DefaultsConfig holds the values used for lazily created rows
type DefaultsConfig struct {
	MetricValue        float64 `yaml:"metric_value"`
	PrimaryMetricValue float64 `yaml:"primary_metric_value"`
	RootChurchName     string  `yaml:"root_church_name"`
}

// Config holds all configuration
type Config struct {
	ServiceName string         `yaml:"service_name"`
	DB          DBConfig       `yaml:"db"`
	Server      ServerConfig   `yaml:"server"`
	Auth        AuthConfig     `yaml:"auth"`
	Log         LogConfig      `yaml:"log"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Defaults    DefaultsConfig `yaml:"defaults"`
}

// Default returns the configuration used when neither a file nor the environment says otherwise
func Default() *Config {
	return &Config{
		ServiceName: "ekklesia",
		DB: DBConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "password",
			DBName:          "ekklesia",
			SSLMode:         "disable",
			SQLitePath:      "ekklesia.db",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			LogLevel:        logger.Warn,
		},
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			BodyLimit:      "10M",
			RateLimit:      20,
		},
		Auth: AuthConfig{
			SigningKey:   "defaultsecretkey",
			SessionHours: 24 * 7,
			CookieName:   "ekklesia_session",
			SecureCookie: false,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Prefix: "ekklesia",
		},
		Defaults: DefaultsConfig{
			MetricValue:        0,
			PrimaryMetricValue: 10,
			RootChurchName:     "First group",
		},
	}
}

// Load loads configuration from an optional YAML file and then from environment variables.
// An empty path falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	if config.Auth.SessionHours <= 0 {
		return nil, fmt.Errorf("session hours must be positive, got %d", config.Auth.SessionHours)
	}
	if config.DB.Driver != "postgres" && config.DB.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver %q", config.DB.Driver)
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.DB.Driver = getEnv("DB_DRIVER", c.DB.Driver)
	c.DB.Host = getEnv("DB_HOST", c.DB.Host)
	c.DB.Port = getEnv("DB_PORT", c.DB.Port)
	c.DB.User = getEnv("DB_USER", c.DB.User)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.DB.DBName = getEnv("DB_NAME", c.DB.DBName)
	c.DB.SSLMode = getEnv("DB_SSL_MODE", c.DB.SSLMode)
	c.DB.SQLitePath = getEnv("DB_SQLITE_PATH", c.DB.SQLitePath)
	c.DB.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.DB.MaxIdleConns)
	c.DB.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.DB.MaxOpenConns)
	c.DB.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.DB.ConnMaxLifetime)
	c.DB.LogLevel = getEnvAsLogLevel("DB_LOG_LEVEL", c.DB.LogLevel)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Env = getEnv("APP_ENV", c.Server.Env)
	c.Server.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", c.Server.AllowedOrigins)
	c.Server.BodyLimit = getEnv("BODY_LIMIT", c.Server.BodyLimit)
	c.Server.RateLimit = getEnvAsFloat("RATE_LIMIT", c.Server.RateLimit)

	c.Auth.SigningKey = getEnv("JWT_SIGNING_KEY", c.Auth.SigningKey)
	c.Auth.SessionHours = getEnvAsInt("SESSION_HOURS", c.Auth.SessionHours)
	c.Auth.CookieName = getEnv("SESSION_COOKIE_NAME", c.Auth.CookieName)
	c.Auth.SecureCookie = getEnvAsBool("SESSION_COOKIE_SECURE", c.Auth.SecureCookie)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Metrics.Prefix = getEnv("METRICS_PREFIX", c.Metrics.Prefix)

	c.Defaults.MetricValue = getEnvAsFloat("DEFAULT_METRIC_VALUE", c.Defaults.MetricValue)
	c.Defaults.PrimaryMetricValue = getEnvAsFloat("DEFAULT_PRIMARY_METRIC_VALUE", c.Defaults.PrimaryMetricValue)
	c.Defaults.RootChurchName = getEnv("ROOT_CHURCH_NAME", c.Defaults.RootChurchName)
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("db_password", maskSecret(c.DB.Password)),
		zap.String("jwt_signing_key", maskSecret(c.Auth.SigningKey)),
		zap.String("server_port", c.Server.Port),
	}
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return "***MASKED***"
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Comma separated, blanks dropped
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
