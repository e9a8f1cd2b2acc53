// Package config handles application configuration loading from YAML files and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "codetech/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	Auth          AuthConfig          `json:"auth" yaml:"auth"`
	Redis         RedisConfig         `json:"redis" yaml:"redis"`
	Email         EmailConfig         `json:"email" yaml:"email"`
	Worker        WorkerConfig        `json:"worker" yaml:"worker"`
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         string        `json:"port" yaml:"port" validate:"required,numeric"`
	Debug        bool          `json:"debug" yaml:"debug"`
	LogLevel     string        `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	CORSOrigins  []string      `json:"cors_origins" yaml:"cors_origins"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// AppBaseURL is the frontend address used for links in e-mails.
	AppBaseURL string `json:"app_base_url" yaml:"app_base_url"`
	// SeedContent controls whether the embedded quiz catalogue is upserted on startup.
	SeedContent bool `json:"seed_content" yaml:"seed_content"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL             string        `json:"url" yaml:"url" validate:"required"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	RunMigrations   bool          `json:"run_migrations" yaml:"run_migrations"`
}

// AuthConfig represents bearer token and seed administrator configuration
type AuthConfig struct {
	JWTSecret         string        `json:"jwt_secret" yaml:"jwt_secret" validate:"required,min=16"`
	TokenTTL          time.Duration `json:"token_ttl" yaml:"token_ttl"`
	SeedAdminEmail    string        `json:"seed_admin_email" yaml:"seed_admin_email" validate:"omitempty,email"`
	SeedAdminPassword string        `json:"seed_admin_password" yaml:"seed_admin_password"`
	SeedAdminName     string        `json:"seed_admin_name" yaml:"seed_admin_name"`
	SignupsDisabled   bool          `json:"signups_disabled" yaml:"signups_disabled"`
}

// RedisConfig represents the optional leaderboard cache
type RedisConfig struct {
	Enabled        bool          `json:"enabled" yaml:"enabled"`
	Addr           string        `json:"addr" yaml:"addr" validate:"required_if=Enabled true"`
	Password       string        `json:"password" yaml:"password"`
	DB             int           `json:"db" yaml:"db" validate:"gte=0"`
	LeaderboardTTL time.Duration `json:"leaderboard_ttl" yaml:"leaderboard_ttl"`
}

// EmailConfig represents email/SMTP configuration
type EmailConfig struct {
	SMTP    SMTPConfig `json:"smtp" yaml:"smtp"`
	Enabled bool       `json:"enabled" yaml:"enabled"`
}

// SMTPConfig represents SMTP server configuration
type SMTPConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	FromAddress string `json:"from_address" yaml:"from_address"`
	FromName    string `json:"from_name" yaml:"from_name"`
}

// WorkerConfig holds the cron schedules of the background worker
type WorkerConfig struct {
	Port                string        `json:"port" yaml:"port"`
	RepairSchedule      string        `json:"repair_schedule" yaml:"repair_schedule"`
	CleanupSchedule     string        `json:"cleanup_schedule" yaml:"cleanup_schedule"`
	LeaderboardSchedule string        `json:"leaderboard_schedule" yaml:"leaderboard_schedule"`
	JobTimeout          time.Duration `json:"job_timeout" yaml:"job_timeout"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "codetech-backend" or "codetech-worker"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`
}

// IsSignupDisabled returns whether self-service signups are disabled
func (c *Config) IsSignupDisabled() bool {
	return c.Auth.SignupsDisabled
}

// IsSeedAdmin reports whether email belongs to the protected seed administrator.
// The comparison is case-insensitive.
func (c *Config) IsSeedAdmin(email string) bool {
	if c.Auth.SeedAdminEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(email), c.Auth.SeedAdminEmail)
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	if err := loadDotEnv(); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load .env: %w", err)
	}

	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct-level constraints on the loaded configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "invalid configuration: "+err.Error())
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultHTTPTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultHTTPTimeout
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Auth.SeedAdminEmail == "" {
		c.Auth.SeedAdminEmail = DefaultSeedAdminEmail
		if c.Auth.SeedAdminPassword == "" {
			c.Auth.SeedAdminPassword = DefaultSeedAdminPassword
		}
		if c.Auth.SeedAdminName == "" {
			c.Auth.SeedAdminName = DefaultSeedAdminName
		}
	}
	if c.Redis.LeaderboardTTL == 0 {
		c.Redis.LeaderboardTTL = DefaultLeaderboardTTL
	}
	if c.Worker.Port == "" {
		c.Worker.Port = "8001"
	}
	if c.Worker.RepairSchedule == "" {
		c.Worker.RepairSchedule = DefaultRepairSchedule
	}
	if c.Worker.CleanupSchedule == "" {
		c.Worker.CleanupSchedule = DefaultCleanupSchedule
	}
	if c.Worker.LeaderboardSchedule == "" {
		c.Worker.LeaderboardSchedule = DefaultLeaderboardSchedule
	}
	if c.Worker.JobTimeout == 0 {
		c.Worker.JobTimeout = WorkerJobTimeout
	}
	if c.OpenTelemetry.Endpoint == "" {
		c.OpenTelemetry.Endpoint = "localhost:4317"
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = "codetech-backend"
	}
}

// loadDotEnv loads variables from a .env file when one is present.
// Variables already set in the environment win.
func loadDotEnv() error {
	path := os.Getenv("CODETECH_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)

	// The signing secret has a dedicated variable so it never has to live in the YAML file.
	if secret := os.Getenv("CODETECH_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

var durationType = reflect.TypeOf(time.Duration(0))

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		if field.Type() == durationType {
			if envVal := os.Getenv(envKey); envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by CODETECH_CONFIG_FILE, falling back to config.yaml
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv("CODETECH_CONFIG_FILE"); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	return loadConfigFromFile("config.yaml")
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
