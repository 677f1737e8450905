package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the plant hardening agent
type Config struct {
	// Placement decision configuration
	LocationID    string  `yaml:"location_id"`
	Latitude      float64 `yaml:"latitude"`
	Longitude     float64 `yaml:"longitude"`
	ThresholdC    float64 `yaml:"threshold_c"`
	ForecastHours int     `yaml:"forecast_hours"`
	NightStart    string  `yaml:"night_start"`
	NightEnd      string  `yaml:"night_end"`
	Timezone      string  `yaml:"timezone"`
	NightFromSun  bool    `yaml:"night_from_sun"`

	// Forecast source configuration
	ForecastURL        string `yaml:"forecast_url"`
	ForecastTimeoutSec int    `yaml:"forecast_timeout_sec"`

	// MQTT configuration
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`
	MQTTNotify   bool   `yaml:"mqtt_notify"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration (decision audit log, optional)
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     int    `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	// Push notification configuration
	PushURL   string `yaml:"push_url"`
	PushToken string `yaml:"push_token"`

	// Service configuration
	ServiceName     string `yaml:"service_name"`
	HealthPort      int    `yaml:"health_port"`
	LogLevel        string `yaml:"log_level"`
	EvalIntervalSec int    `yaml:"eval_interval_sec"`
	RunOnce         bool   `yaml:"run_once"`
	MaxHistory      int    `yaml:"max_history"`

	configFile string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		LocationID:    "home",
		Latitude:      47.3769,
		Longitude:     8.5417,
		ThresholdC:    15.0,
		ForecastHours: 3,
		NightStart:    "23:00",
		NightEnd:      "06:00",
		Timezone:      "Europe/Zurich",
		NightFromSun:  false,

		ForecastURL:        "https://api.open-meteo.com/v1/forecast",
		ForecastTimeoutSec: 15,

		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",
		MQTTNotify:   true,

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:    "",
		PostgresPort:    5432,
		PostgresUser:    "plants",
		PostgresDB:      "plants",
		PostgresSSLMode: "disable",

		PushURL:   "",
		PushToken: "",

		ServiceName:     "hardening-agent",
		HealthPort:      8080,
		LogLevel:        "info",
		EvalIntervalSec: 1800,
		RunOnce:         false,
		MaxHistory:      100,
	}
}

// LoadFromEnv loads configuration from environment variables with PLANTS_ prefix
func (c *Config) LoadFromEnv() {
	// Placement decision configuration
	if v := os.Getenv("PLANTS_LOCATION_ID"); v != "" {
		c.LocationID = v
	}
	if v := os.Getenv("PLANTS_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("PLANTS_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
	if v := os.Getenv("PLANTS_THRESHOLD_C"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			c.ThresholdC = threshold
		}
	}
	if v := os.Getenv("PLANTS_FORECAST_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil {
			c.ForecastHours = hours
		}
	}
	if v := os.Getenv("PLANTS_NIGHT_START"); v != "" {
		c.NightStart = v
	}
	if v := os.Getenv("PLANTS_NIGHT_END"); v != "" {
		c.NightEnd = v
	}
	if v := os.Getenv("PLANTS_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("PLANTS_NIGHT_FROM_SUN"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.NightFromSun = enable
		}
	}

	// Forecast source configuration
	if v := os.Getenv("PLANTS_FORECAST_URL"); v != "" {
		c.ForecastURL = v
	}
	if v := os.Getenv("PLANTS_FORECAST_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			c.ForecastTimeoutSec = sec
		}
	}

	// MQTT configuration
	if v := os.Getenv("PLANTS_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("PLANTS_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("PLANTS_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("PLANTS_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("PLANTS_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("PLANTS_MQTT_NOTIFY"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.MQTTNotify = enable
		}
	}

	// Redis configuration
	if v := os.Getenv("PLANTS_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("PLANTS_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("PLANTS_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("PLANTS_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("PLANTS_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("PLANTS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("PLANTS_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("PLANTS_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("PLANTS_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("PLANTS_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Push notification configuration
	if v := os.Getenv("PLANTS_PUSH_URL"); v != "" {
		c.PushURL = v
	}
	if v := os.Getenv("PLANTS_PUSH_TOKEN"); v != "" {
		c.PushToken = v
	}

	// Service configuration
	if v := os.Getenv("PLANTS_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("PLANTS_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("PLANTS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PLANTS_EVAL_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.EvalIntervalSec = interval
		}
	}
	if v := os.Getenv("PLANTS_RUN_ONCE"); v != "" {
		if once, err := strconv.ParseBool(v); err == nil {
			c.RunOnce = once
		}
	}
	if v := os.Getenv("PLANTS_MAX_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxHistory = max
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values.
// When --config points at a YAML file, the file is applied after the flags
// and wins over both env and flag values.
func (c *Config) LoadFromFlags() error {
	// Placement decision flags
	pflag.StringVar(&c.LocationID, "location-id", c.LocationID, "Location identifier for the persisted state record")
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for the forecast")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for the forecast")
	pflag.Float64Var(&c.ThresholdC, "threshold-c", c.ThresholdC, "Minimum temperature threshold in Celsius")
	pflag.IntVar(&c.ForecastHours, "forecast-hours", c.ForecastHours, "Day look-ahead window length in hours")
	pflag.StringVar(&c.NightStart, "night-start", c.NightStart, "Night window start (HH:MM local)")
	pflag.StringVar(&c.NightEnd, "night-end", c.NightEnd, "Night window end (HH:MM local)")
	pflag.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone for window calculations")
	pflag.BoolVar(&c.NightFromSun, "night-from-sun", c.NightFromSun, "Derive night bounds from sunset/sunrise instead of fixed clock times")

	// Forecast source flags
	pflag.StringVar(&c.ForecastURL, "forecast-url", c.ForecastURL, "Open-Meteo forecast endpoint URL")
	pflag.IntVar(&c.ForecastTimeoutSec, "forecast-timeout", c.ForecastTimeoutSec, "Forecast HTTP timeout in seconds")

	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	pflag.BoolVar(&c.MQTTNotify, "mqtt-notify", c.MQTTNotify, "Send placement notifications over MQTT")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname (empty disables the audit log)")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Push notification flags
	pflag.StringVar(&c.PushURL, "push-url", c.PushURL, "Push notification endpoint URL (empty disables push)")
	pflag.StringVar(&c.PushToken, "push-token", c.PushToken, "Push notification bearer token")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	pflag.IntVar(&c.EvalIntervalSec, "eval-interval", c.EvalIntervalSec, "Evaluation loop interval in seconds")
	pflag.BoolVar(&c.RunOnce, "once", c.RunOnce, "Run a single evaluation and exit (cron mode)")
	pflag.IntVar(&c.MaxHistory, "max-history", c.MaxHistory, "Maximum decision history entries kept in Redis")
	pflag.StringVar(&c.configFile, "config", c.configFile, "Optional YAML configuration file")

	pflag.Parse()

	if c.configFile != "" {
		if err := c.LoadFromFile(c.configFile); err != nil {
			return err
		}
	}
	return nil
}

// LoadFromFile merges values from a YAML configuration file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.LocationID == "" {
		return fmt.Errorf("location ID is required")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if math.IsNaN(c.ThresholdC) || math.IsInf(c.ThresholdC, 0) {
		return fmt.Errorf("threshold must be a finite temperature")
	}
	if c.ForecastHours <= 0 {
		return fmt.Errorf("forecast hours must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.ForecastURL == "" {
		return fmt.Errorf("forecast URL is required")
	}
	if c.MQTTNotify {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT broker is required")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("MQTT port must be between 1 and 65535")
		}
	}
	if !c.MQTTNotify && c.PushURL == "" {
		return fmt.Errorf("at least one notification sink (MQTT or push) must be configured")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.EvalIntervalSec <= 0 {
		return fmt.Errorf("evaluation interval must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresEnabled reports whether the decision audit log is configured
func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// ForecastTimeout returns the forecast HTTP timeout as a duration
func (c *Config) ForecastTimeout() time.Duration {
	return time.Duration(c.ForecastTimeoutSec) * time.Second
}
