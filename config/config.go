// Package config loads runtime settings for the auth services.
//
// Values are resolved in order: built in defaults, an optional YAML
// file, then EVENTAUTH_* environment variables.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/goliatone/go-event-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "EVENTAUTH"

type Config struct {
	Token     TokenConfig         `yaml:"token" envconfig:"TOKEN"`
	Frontend  FrontendConfig      `yaml:"frontend" envconfig:"FRONTEND"`
	Passwords auth.PasswordPolicy `yaml:"passwords" envconfig:"PASSWORDS"`
	Auth      AuthConfig          `yaml:"auth" envconfig:"AUTH"`
	Database  DatabaseConfig      `yaml:"database" envconfig:"DATABASE"`
	Redis     RedisConfig         `yaml:"redis" envconfig:"REDIS"`
	Mail      MailConfig          `yaml:"mail" envconfig:"MAIL"`
	Logging   LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
}

type TokenConfig struct {
	SigningKey    string        `yaml:"signing_key" envconfig:"SIGNING_KEY"`
	SigningMethod string        `yaml:"signing_method" envconfig:"SIGNING_METHOD"`
	KeyID         string        `yaml:"key_id" envconfig:"KEY_ID"`
	Expiration    time.Duration `yaml:"expiration" envconfig:"EXPIRATION"`
	ClockSkew     time.Duration `yaml:"clock_skew" envconfig:"CLOCK_SKEW"`
	Issuer        string        `yaml:"issuer" envconfig:"ISSUER"`
	Audience      []string      `yaml:"audience" envconfig:"AUDIENCE"`
}

type FrontendConfig struct {
	BaseURL           string `yaml:"base_url" envconfig:"BASE_URL"`
	ResetPasswordPath string `yaml:"reset_password_path" envconfig:"RESET_PASSWORD_PATH"`
	LoginPath         string `yaml:"login_path" envconfig:"LOGIN_PATH"`
}

type AuthConfig struct {
	RequireConfirmedEmail bool          `yaml:"require_confirmed_email" envconfig:"REQUIRE_CONFIRMED_EMAIL"`
	RoleCheckConcurrency  int           `yaml:"role_check_concurrency" envconfig:"ROLE_CHECK_CONCURRENCY"`
	OperationTimeout      time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
	NotificationTimeout   time.Duration `yaml:"notification_timeout" envconfig:"NOTIFICATION_TIMEOUT"`
	ResetSecretTTL        time.Duration `yaml:"reset_secret_ttl" envconfig:"RESET_SECRET_TTL"`
	PhoneRegion           string        `yaml:"phone_region" envconfig:"PHONE_REGION"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" envconfig:"DSN"`
}

// RedisConfig is optional. An empty Addr keeps reset secrets in the
// database and delivers mail in process.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB"`
}

type MailConfig struct {
	AppName string `yaml:"app_name" envconfig:"APP_NAME"`
	Queue   string `yaml:"queue" envconfig:"QUEUE"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

var _ auth.Config = (*Config)(nil)

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read config file").
					WithMetadata(map[string]any{"path": path})
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to apply environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built in configuration. The signing key is left
// empty and must be provided.
func Default() *Config {
	return &Config{
		Token: TokenConfig{
			SigningMethod: "HS256",
			KeyID:         auth.DefaultSigningKeyID,
			Expiration:    auth.DefaultTokenExpiration,
			ClockSkew:     30 * time.Second,
			Issuer:        "event-auth",
		},
		Frontend: FrontendConfig{
			BaseURL:           "http://localhost:3000",
			ResetPasswordPath: auth.DefaultResetPasswordPath,
			LoginPath:         "/auth/login",
		},
		Passwords: auth.DefaultPasswordPolicy(),
		Auth: AuthConfig{
			RequireConfirmedEmail: true,
			RoleCheckConcurrency:  auth.DefaultRoleCheckLimit,
			OperationTimeout:      auth.DefaultOperationTimeout,
			NotificationTimeout:   auth.DefaultNotifyTimeout,
			ResetSecretTTL:        24 * time.Hour,
			PhoneRegion:           "US",
		},
		Database: DatabaseConfig{
			DSN: "file:event-auth.db?cache=shared",
		},
		Mail: MailConfig{
			AppName: "Our App",
			Queue:   "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the settings the services cannot run without
func (c *Config) Validate() error {
	err := validation.Errors{
		"token": validation.ValidateStruct(&c.Token,
			validation.Field(&c.Token.SigningKey, validation.Required),
			validation.Field(&c.Token.SigningMethod, validation.Required, validation.In(signingMethods...)),
			validation.Field(&c.Token.Expiration, validation.Required, validation.Min(time.Second)),
			validation.Field(&c.Token.ClockSkew, validation.Min(time.Duration(0))),
		),
		"frontend": validation.ValidateStruct(&c.Frontend,
			validation.Field(&c.Frontend.BaseURL, validation.Required, is.URL),
			validation.Field(&c.Frontend.ResetPasswordPath, validation.Required),
		),
		"passwords": validation.ValidateStruct(&c.Passwords,
			validation.Field(&c.Passwords.MinLength, validation.Min(1)),
		),
		"auth": validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.RoleCheckConcurrency, validation.Min(1)),
			validation.Field(&c.Auth.PhoneRegion, validation.Length(2, 2)),
		),
		"logging": validation.ValidateStruct(&c.Logging,
			validation.Field(&c.Logging.Format, validation.In("json", "text")),
		),
	}.Filter()
	if err == nil {
		return nil
	}

	return goerrors.New("invalid configuration", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"errors": auth.ValidationMessages(err)})
}

var signingMethods = []any{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}

func (c *Config) GetSigningKey() string                  { return c.Token.SigningKey }
func (c *Config) GetSigningMethod() string               { return strings.ToUpper(c.Token.SigningMethod) }
func (c *Config) GetSigningKeyID() string                { return c.Token.KeyID }
func (c *Config) GetTokenExpiration() time.Duration      { return c.Token.Expiration }
func (c *Config) GetClockSkew() time.Duration            { return c.Token.ClockSkew }
func (c *Config) GetIssuer() string                      { return c.Token.Issuer }
func (c *Config) GetAudience() []string                  { return c.Token.Audience }
func (c *Config) GetFrontendBaseURL() string             { return c.Frontend.BaseURL }
func (c *Config) GetResetPasswordPath() string           { return c.Frontend.ResetPasswordPath }
func (c *Config) GetRequireConfirmedEmail() bool         { return c.Auth.RequireConfirmedEmail }
func (c *Config) GetRoleCheckConcurrency() int           { return c.Auth.RoleCheckConcurrency }
func (c *Config) GetOperationTimeout() time.Duration     { return c.Auth.OperationTimeout }
func (c *Config) GetNotificationTimeout() time.Duration  { return c.Auth.NotificationTimeout }
func (c *Config) GetPasswordPolicy() auth.PasswordPolicy { return c.Passwords }
func (c *Config) GetPhoneRegion() string                 { return c.Auth.PhoneRegion }
