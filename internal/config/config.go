package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/youngchun/callforward/internal/types"
)

type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment" validate:"required"`
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Logging      LoggingConfig      `mapstructure:"logging" validate:"required"`
	Postgres     PostgresConfig     `mapstructure:"postgres" validate:"required"`
	Stripe       StripeConfig       `mapstructure:"stripe"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	Push         PushConfig         `mapstructure:"push"`
	Cron         CronConfig         `mapstructure:"cron"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Leave        LeaveConfig        `mapstructure:"leave"`
	Notification NotificationConfig `mapstructure:"notification"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

type DeploymentConfig struct {
	Mode        types.RunMode     `mapstructure:"mode" validate:"required,oneof=local api aws_lambda_api"`
	Environment types.Environment `mapstructure:"environment" validate:"required,oneof=development production"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PriceID       string `mapstructure:"price_id"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

type TwilioConfig struct {
	AccountSID          string `mapstructure:"account_sid"`
	AuthToken           string `mapstructure:"auth_token"`
	VoiceWebhookURL     string `mapstructure:"voice_webhook_url"`
	Country             string `mapstructure:"country" validate:"required,len=2"`
	MessagingServiceSID string `mapstructure:"messaging_service_sid"`
	AlertTarget         string `mapstructure:"alert_target"`
	ValidateSignature   bool   `mapstructure:"validate_signature"`
	// PublicBaseURL is the externally visible origin Twilio signs requests against
	PublicBaseURL string `mapstructure:"public_base_url"`
	AutoReply     string `mapstructure:"auto_reply"`
}

type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Contact         string `mapstructure:"contact"`
	InternalToken   string `mapstructure:"internal_token"`
	TTL             int    `mapstructure:"ttl"`
}

// Enabled reports whether VAPID credentials are present
func (c PushConfig) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type LeaveConfig struct {
	PublicBaseURL string        `mapstructure:"public_base_url"`
	LinkTTL       time.Duration `mapstructure:"link_ttl"`
	RateLimit     RateLimit     `mapstructure:"rate_limit"`
}

type RateLimit struct {
	// PerMinute is the sustained number of requests allowed per client
	PerMinute int `mapstructure:"per_minute" validate:"min=0"`
	Burst     int `mapstructure:"burst" validate:"min=0"`
}

type NotificationConfig struct {
	Topic           string        `mapstructure:"topic" validate:"required"`
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	Concurrency     int           `mapstructure:"concurrency"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func NewConfig() (*Configuration, error) {
	// a local .env is optional, real deployments inject the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/callforward")

	v.SetEnvPrefix("CALLFORWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("deployment.environment", string(types.EnvironmentDevelopment))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "callforward")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "callforward")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.price_id", "")
	v.SetDefault("stripe.success_url", "")
	v.SetDefault("stripe.cancel_url", "")

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.voice_webhook_url", "")
	v.SetDefault("twilio.country", "US")
	v.SetDefault("twilio.messaging_service_sid", "")
	v.SetDefault("twilio.alert_target", "")
	v.SetDefault("twilio.validate_signature", false)
	v.SetDefault("twilio.public_base_url", "")
	v.SetDefault("twilio.auto_reply", "We are unable to take your call right now. We will text you a link to leave a message.")

	v.SetDefault("push.vapid_public_key", "")
	v.SetDefault("push.vapid_private_key", "")
	v.SetDefault("push.contact", "mailto:ops@example.com")
	v.SetDefault("push.internal_token", "")
	v.SetDefault("push.ttl", 60)

	v.SetDefault("cron.secret", "")
	v.SetDefault("admin.api_key", "")

	v.SetDefault("leave.public_base_url", "")
	v.SetDefault("leave.link_ttl", 48*time.Hour)
	v.SetDefault("leave.rate_limit.per_minute", 10)
	v.SetDefault("leave.rate_limit.burst", 5)

	v.SetDefault("notification.topic", "call_notifications")
	v.SetDefault("notification.max_retries", 3)
	v.SetDefault("notification.initial_interval", time.Second)
	v.SetDefault("notification.max_interval", 10*time.Second)
	v.SetDefault("notification.multiplier", 2.0)
	v.SetDefault("notification.concurrency", 4)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// IsProduction reports whether debug surfaces must be disabled
func (c Configuration) IsProduction() bool {
	return c.Deployment.Environment == types.EnvironmentProduction
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal, Environment: types.EnvironmentDevelopment},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Twilio:     TwilioConfig{Country: "US"},
		Leave:      LeaveConfig{LinkTTL: 48 * time.Hour, RateLimit: RateLimit{PerMinute: 10, Burst: 5}},
		Push:       PushConfig{TTL: 60},
		Notification: NotificationConfig{
			Topic:           "call_notifications",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			Concurrency:     4,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
