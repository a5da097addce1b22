// Package config loads portfolio server settings from the environment and an
// optional portfolio.yaml.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is read when present in the working directory.
	DefaultConfigFile = "portfolio.yaml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "PORTFOLIO"

	DefaultContactEndpoint = "https://getform.io/f/9bde9680-c60e-4a04-a021-c98c3ee8928a"
)

type Config struct {
	Port          string `mapstructure:"port"`
	GinMode       string `mapstructure:"gin_mode"`
	DatabasePath  string `mapstructure:"database_path"`
	ContentPath   string `mapstructure:"content_path"`
	TemplatesGlob string `mapstructure:"templates_glob"`

	Contact ContactConfig `mapstructure:"contact"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Log     LogConfig     `mapstructure:"log"`

	// VisitorRetention bounds how long hashed visitor rows are kept.
	VisitorRetention time.Duration `mapstructure:"visitor_retention"`
}

type ContactConfig struct {
	// Relay is "http" (hosted form endpoint) or "smtp".
	Relay      string        `mapstructure:"relay"`
	Endpoint   string        `mapstructure:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ConfirmFor time.Duration `mapstructure:"confirm_for"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// legacyEnv maps keys to the unprefixed names older .env files use.
var legacyEnv = map[string]string{
	"port":           "PORT",
	"gin_mode":       "GIN_MODE",
	"smtp.host":      "SMTP_HOST",
	"smtp.port":      "SMTP_PORT",
	"smtp.user":      "SMTP_USER",
	"smtp.password":  "SMTP_PASS",
	"smtp.to":        "TO_EMAIL",
	"admin.username": "ADMIN_USERNAME",
	"admin.password": "ADMIN_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("database_path", "portfolio.db")
	v.SetDefault("content_path", "content.yaml")
	v.SetDefault("templates_glob", "templates/*")
	v.SetDefault("visitor_retention", 365*24*time.Hour)

	v.SetDefault("contact.relay", "http")
	v.SetDefault("contact.endpoint", DefaultContactEndpoint)
	v.SetDefault("contact.timeout", 10*time.Second)
	v.SetDefault("contact.confirm_for", 3*time.Second)
	v.SetDefault("contact.session_ttl", 30*time.Minute)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.to", "")

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")

	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
}

// Load reads defaults, then path (if non-empty or DefaultConfigFile exists),
// then environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.Contact.Relay {
	case "http":
		u, err := url.Parse(c.Contact.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("contact.endpoint %q is not an absolute URL", c.Contact.Endpoint))
		}
	case "smtp":
		if c.SMTP.To == "" {
			errs = append(errs, errors.New("smtp.to is required when contact.relay is smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("contact.relay %q must be http or smtp", c.Contact.Relay))
	}
	if c.Contact.ConfirmFor <= 0 {
		errs = append(errs, errors.New("contact.confirm_for must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
