package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverSMTP   = "smtp"
	DriverResend = "resend"
	DriverSES    = "ses"
	DriverLog    = "log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Server struct {
	Host            string        `envconfig:"SERVER_HOST"`
	Port            string        `envconfig:"PORT"                    default:"3000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT"     default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT"    default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

type Email struct {
	Driver      string        `envconfig:"EMAIL_DRIVER"       default:"smtp"`
	User        string        `envconfig:"EMAIL_USER"`
	Host        string        `envconfig:"EMAIL_HOST"         default:"smtp.gmail.com"`
	Port        string        `envconfig:"EMAIL_PORT"         default:"587"`
	Password    string        `envconfig:"EMAIL_PASSWORD"`
	From        string        `envconfig:"EMAIL_FROM"`
	Recipient   string        `envconfig:"EMAIL_RECIPIENT"    required:"true"`
	ImplicitTLS bool          `envconfig:"EMAIL_IMPLICIT_TLS" default:"false"`
	SendTimeout time.Duration `envconfig:"EMAIL_SEND_TIMEOUT" default:"30s"`
}

type Resend struct {
	APIKey string `envconfig:"RESEND_API_KEY"`
}

type SES struct {
	Region    string `envconfig:"AWS_REGION"            default:"us-east-1"`
	AccessKey string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

type Breaker struct {
	Enabled     bool          `envconfig:"BREAKER_ENABLED"      default:"true"`
	MaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"5"`
	OpenTimeout time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"15s"`
}

type CORS struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

type Config struct {
	Server  Server
	Email   Email
	Resend  Resend
	SES     SES
	Breaker Breaker
	CORS    CORS

	LogsPath string `envconfig:"LOGS_PATH" default:"logs/relay.log"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	GinMode  string `envconfig:"GIN_MODE"  default:"release"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the selected mail driver depends on.
func (c *Config) Validate() error {
	if c.Email.Recipient == "" {
		return fmt.Errorf("%w: EMAIL_RECIPIENT is required", ErrInvalidConfig)
	}

	switch c.Email.Driver {
	case DriverSMTP:
		if c.Email.Host == "" || c.Email.Port == "" {
			return fmt.Errorf("%w: EMAIL_HOST and EMAIL_PORT are required for smtp", ErrInvalidConfig)
		}
		if c.Sender() == "" {
			return fmt.Errorf("%w: EMAIL_FROM or EMAIL_USER is required for smtp", ErrInvalidConfig)
		}
	case DriverResend:
		if c.Resend.APIKey == "" {
			return fmt.Errorf("%w: RESEND_API_KEY is required for resend", ErrInvalidConfig)
		}
		if c.Sender() == "" {
			return fmt.Errorf("%w: EMAIL_FROM is required for resend", ErrInvalidConfig)
		}
	case DriverSES:
		if c.Sender() == "" {
			return fmt.Errorf("%w: EMAIL_FROM is required for ses", ErrInvalidConfig)
		}
	case DriverLog:
	default:
		return fmt.Errorf("%w: unknown EMAIL_DRIVER %q", ErrInvalidConfig, c.Email.Driver)
	}

	if c.Email.SendTimeout <= 0 {
		return fmt.Errorf("%w: EMAIL_SEND_TIMEOUT must be positive", ErrInvalidConfig)
	}
	return nil
}

// Sender is the envelope and header sender address. It falls back to the
// authenticating user the way most submission servers expect.
func (c *Config) Sender() string {
	if c.Email.From != "" {
		return c.Email.From
	}
	return c.Email.User
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (e *Email) Address() string {
	return net.JoinHostPort(e.Host, e.Port)
}
