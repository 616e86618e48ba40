package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for namespaced environment variables (CLINIC_SERVER_PORT, ...).
// Every field also accepts its bare alt name (PORT, FRONTEND_URL, ...).
const EnvPrefix = "CLINIC"

// Default admin credentials used when none are configured
const (
	DefaultAdminEmail    = "rajalakshmi@gmail.com"
	DefaultAdminPassword = "123456"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	CORS      CORSConfig      `yaml:"cors" envconfig:"CORS"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	JWT       JWTConfig       `yaml:"jwt" envconfig:"JWT"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" envconfig:"BOOTSTRAP"`
	Uploads   UploadsConfig   `yaml:"uploads" envconfig:"UPLOADS"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string `yaml:"host" envconfig:"SERVER_HOST"`
	Port         int    `yaml:"port" envconfig:"PORT"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is honored.
	// Empty means the peer address is always the client address.
	TrustedProxies []string `yaml:"trusted_proxies" envconfig:"TRUSTED_PROXIES"`
}

// CORSConfig contains cross-origin settings.
// FrontendURLs accepts a comma separated list in the environment.
type CORSConfig struct {
	FrontendURLs []string `yaml:"frontend_urls" envconfig:"FRONTEND_URL"`
	DevOrigins   []string `yaml:"dev_origins" envconfig:"DEV_ORIGINS"`
	MaxAge       int      `yaml:"max_age" envconfig:"CORS_MAX_AGE"` // seconds
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Type    string        `yaml:"type" envconfig:"STORAGE_TYPE"` // memory, mongodb
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri" envconfig:"MONGO_URI"`
	Database string `yaml:"database" envconfig:"MONGO_DATABASE"`
	Timeout  int    `yaml:"timeout" envconfig:"MONGO_TIMEOUT"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`   // debug, info, warn, error
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"` // json, text
	File      string `yaml:"file" envconfig:"LOG_FILE"`     // empty: stdout only
	MaxSizeMB int    `yaml:"max_size_mb" envconfig:"LOG_MAX_SIZE_MB"`
}

// JWTConfig contains JWT configuration
type JWTConfig struct {
	Secret      string `yaml:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `yaml:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
	Issuer      string `yaml:"issuer" envconfig:"JWT_ISSUER"`
}

// BootstrapConfig controls creation of the default administrator
type BootstrapConfig struct {
	AdminName     string `yaml:"admin_name" envconfig:"DEFAULT_ADMIN_NAME"`
	AdminEmail    string `yaml:"admin_email" envconfig:"DEFAULT_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" envconfig:"DEFAULT_ADMIN_PASSWORD"`
	// RequirePassword refuses the built-in fallback password.
	RequirePassword bool `yaml:"require_password" envconfig:"REQUIRE_ADMIN_PASSWORD"`
	TimeoutSeconds  int  `yaml:"timeout_seconds" envconfig:"BOOTSTRAP_TIMEOUT"`
}

// UploadsConfig contains static upload settings
type UploadsConfig struct {
	Dir         string `yaml:"dir" envconfig:"UPLOADS_DIR"`
	MaxUploadMB int    `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB"`
}

// RateLimitConfig configures the login rate limiter
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" envconfig:"LOGIN_RATE_LIMIT_ENABLED"`
	RequestsPerMinute int  `yaml:"requests_per_minute" envconfig:"LOGIN_RATE_LIMIT_RPM"`
	Burst             int  `yaml:"burst" envconfig:"LOGIN_RATE_LIMIT_BURST"`
	LockoutSeconds    int  `yaml:"lockout_seconds" envconfig:"LOGIN_LOCKOUT_SECONDS"`
}

// SetDefaults fills zero values with defaults
func (c *RateLimitConfig) SetDefaults() {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 10
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
	if c.LockoutSeconds <= 0 {
		c.LockoutSeconds = 60
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Environment has the highest priority
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			MaxBodyBytes: 1 << 20,
		},
		CORS: CORSConfig{
			DevOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			MaxAge: 43200,
		},
		Storage: StorageConfig{
			Type: "mongodb",
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "clinic",
				Timeout:  10,
			},
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			MaxSizeMB: 50,
		},
		JWT: JWTConfig{
			ExpiryHours: 24,
			Issuer:      "booking-backend",
		},
		Bootstrap: BootstrapConfig{
			AdminName:      "Admin",
			TimeoutSeconds: 10,
		},
		Uploads: UploadsConfig{
			Dir:         "uploads",
			MaxUploadMB: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			Burst:             5,
			LockoutSeconds:    60,
		},
	}
}

// normalize trims list entries that may come from comma separated env values
func (c *Config) normalize() {
	c.CORS.FrontendURLs = compact(c.CORS.FrontendURLs)
	c.CORS.DevOrigins = compact(c.CORS.DevOrigins)
	c.Server.TrustedProxies = compact(c.Server.TrustedProxies)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Type != "memory" && c.Storage.Type != "mongodb" {
		return fmt.Errorf("invalid storage type: %s (must be memory or mongodb)", c.Storage.Type)
	}

	if c.Storage.Type == "mongodb" && c.Storage.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required when using mongodb storage")
	}

	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("invalid trusted proxy: %s", proxy)
		}
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs on top of Validate
func (c *Config) ValidateServer() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResolvedAdminEmail returns the configured admin email or the built-in fallback.
// The value is returned as configured; normalization happens in the bootstrap.
func (c *BootstrapConfig) ResolvedAdminEmail() string {
	if c.AdminEmail == "" {
		return DefaultAdminEmail
	}
	return c.AdminEmail
}

// ResolvedAdminPassword returns the configured admin password or the built-in fallback,
// and whether the fallback was used.
func (c *BootstrapConfig) ResolvedAdminPassword() (string, bool) {
	if c.AdminPassword == "" {
		return DefaultAdminPassword, true
	}
	return c.AdminPassword, false
}
