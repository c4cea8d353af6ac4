package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// Config captures the full configuration surface shared by the sample programs.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Vendor    VendorConfig    `mapstructure:"vendor"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Targets   TargetsConfig   `mapstructure:"targets"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// VendorConfig locates the contact-center APIs.
type VendorConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	APIURL         string        `mapstructure:"api_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type AuthConfig struct {
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	TokenSkew     time.Duration `mapstructure:"token_skew"`
	TokenCacheKey string        `mapstructure:"token_cache_key"`
	// AuthorizationToken is used by programs that skip the password grant.
	AuthorizationToken string `mapstructure:"authorization_token"`
}

type AgentConfig struct {
	NotReadyReason string        `mapstructure:"not_ready_reason"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
}

type CallbackConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BasePath    string        `mapstructure:"base_path"`
	ServiceName string        `mapstructure:"service_name"`
	PhoneNumber string        `mapstructure:"phone_number"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

type TargetsConfig struct {
	SearchTerm string `mapstructure:"search_term"`
	Limit      int    `mapstructure:"limit"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ClientID      string   `mapstructure:"client_id"`
	ActivityTopic string   `mapstructure:"activity_topic"`
}

// Enabled reports whether activity publishing is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.ActivityTopic != ""
}

type TelemetryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	TracingEnabled  bool          `mapstructure:"tracing_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("CCSAMPLES")
	v.SetEnvKeyReplacer(NewEnvReplacer())
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file: %w", err)
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "contact-center-samples")
	v.SetDefault("app.env", "development")
	v.SetDefault("vendor.request_timeout", 30*time.Second)
	v.SetDefault("auth.token_skew", 30*time.Second)
	v.SetDefault("agent.not_ready_reason", "AfterCallWork")
	v.SetDefault("callback.wait_timeout", time.Minute)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.shutdown_timeout", 5*time.Second)
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

// ValidateVoice checks the settings the call control program needs.
func (c *Config) ValidateVoice() error {
	var missing []string
	if c.Vendor.APIKey == "" {
		missing = append(missing, "vendor.api_key")
	}
	if c.Vendor.APIURL == "" {
		missing = append(missing, "vendor.api_url")
	}
	if c.Auth.ClientID == "" {
		missing = append(missing, "auth.client_id")
	}
	if c.Auth.ClientSecret == "" {
		missing = append(missing, "auth.client_secret")
	}
	if c.Auth.Username == "" {
		missing = append(missing, "auth.username")
	}
	if c.Auth.Password == "" {
		missing = append(missing, "auth.password")
	}
	if c.Agent.NotReadyReason == "" {
		missing = append(missing, "agent.not_ready_reason")
	}
	return missingErr(missing)
}

// ValidateCallback checks the settings the callback booking program needs.
func (c *Config) ValidateCallback() error {
	var missing []string
	if c.Callback.APIKey == "" {
		missing = append(missing, "callback.api_key")
	}
	if c.Callback.BasePath == "" {
		missing = append(missing, "callback.base_path")
	}
	if c.Callback.ServiceName == "" {
		missing = append(missing, "callback.service_name")
	}
	if c.Callback.PhoneNumber == "" {
		missing = append(missing, "callback.phone_number")
	}
	return missingErr(missing)
}

// ValidateTargets checks the settings the target search program needs.
func (c *Config) ValidateTargets() error {
	var missing []string
	if c.Vendor.APIKey == "" {
		missing = append(missing, "vendor.api_key")
	}
	if c.Vendor.APIURL == "" {
		missing = append(missing, "vendor.api_url")
	}
	if c.Auth.AuthorizationToken == "" {
		missing = append(missing, "auth.authorization_token")
	}
	if c.Targets.SearchTerm == "" {
		missing = append(missing, "targets.search_term")
	}
	return missingErr(missing)
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", apperrors.ErrValidation, strings.Join(missing, ", "))
}
