// Package config provides the Jira connection configuration.
// It supports loading configuration from a YAML file, a .env file,
// environment variables and an optional token source such as the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvHost       = "JIRA_HOST"
	EnvEmail      = "JIRA_EMAIL"
	EnvAPIToken   = "JIRA_API_TOKEN"
	EnvAPIVersion = "JIRA_API_VERSION"
	EnvUserAgent  = "JIRA_USER_AGENT"
	EnvTimeout    = "JIRA_TIMEOUT"
	EnvPageSize   = "JIRA_PAGE_SIZE"
	EnvLogLevel   = "JIRA_LOG_LEVEL"
)

// Default configuration values.
const (
	DefaultAPIVersion = "3"
	DefaultUserAgent  = "jira-data-client/0.1.0"
	DefaultPageSize   = 100
	DefaultLogLevel   = "info"
	DefaultEnvFile    = ".env"
)

var (
	// ErrMissingConfig matches every *MissingError via errors.Is.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrTokenNotFound is returned by a TokenSource that has no token for
	// the account. Load treats it as "no token" and logs nothing.
	ErrTokenNotFound = errors.New("no token stored")
)

// MissingError lists the required settings that were empty.
type MissingError struct {
	// Names holds the environment variable names of the missing settings,
	// in the order host, email, token.
	Names []string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConfig, strings.Join(e.Names, ", "))
}

// Is reports whether target is ErrMissingConfig.
func (e *MissingError) Is(target error) bool {
	return target == ErrMissingConfig
}

// Config holds the Jira connection settings.
type Config struct {
	// Host is the Jira base URL, e.g. https://example.atlassian.net.
	// A host without scheme is treated as https.
	Host string `yaml:"host"`

	// Email is the account email used for Basic authentication.
	Email string `yaml:"email"`

	// APIToken is the Atlassian API token paired with Email.
	APIToken string `yaml:"api_token"`

	// APIVersion selects /rest/api/<version>.
	APIVersion string `yaml:"api_version"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds a single HTTP round trip. Zero means no timeout.
	Timeout time.Duration `yaml:"-"`

	// PageSize is the default number of issues requested per search page.
	PageSize int `yaml:"page_size"`

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// TokenSource supplies an API token for an account when none is configured.
// A missing token is reported as an error matching ErrTokenNotFound.
type TokenSource interface {
	Token(email string) (string, error)
}

// LoadOptions controls where Load reads settings from.
type LoadOptions struct {
	// File is an optional YAML config file. Missing files are an error.
	File string

	// EnvFile is an optional dotenv file. A missing file is ignored.
	EnvFile string

	// Tokens is consulted when no API token is configured.
	Tokens TokenSource

	// Getenv replaces os.Getenv (for testing).
	Getenv func(string) string

	// Logger receives token source warnings. Nil uses the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a Config with default values and no credentials.
func DefaultConfig() Config {
	return Config{
		APIVersion: DefaultAPIVersion,
		UserAgent:  DefaultUserAgent,
		PageSize:   DefaultPageSize,
		LogLevel:   DefaultLogLevel,
	}
}

// Load builds the configuration. Later sources override earlier ones:
//  1. Default values
//  2. YAML config file
//  3. .env file
//  4. Environment variables
//  5. Token source, only when the token is still empty
//
// Load does not validate; call Validate or pass the result to client.New.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if opts.File != "" {
		if err := loadFromFile(&cfg, opts.File); err != nil {
			return cfg, fmt.Errorf("loading config file: %w", err)
		}
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if opts.EnvFile != "" {
		dotenv, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			getenv = withFallback(getenv, dotenv)
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("reading env file: %w", err)
		}
	}

	if err := loadFromEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	if cfg.APIToken == "" && cfg.Email != "" && opts.Tokens != nil {
		token, err := opts.Tokens.Token(cfg.Email)
		switch {
		case err == nil:
			cfg.APIToken = token
		case !errors.Is(err, ErrTokenNotFound):
			logger := log.With().Str("component", "config").Logger()
			if opts.Logger != nil {
				logger = *opts.Logger
			}
			logger.Warn().
				Err(err).
				Str("email", cfg.Email).
				Msg("Token lookup failed")
		}
	}

	return cfg, nil
}

// Validate checks that host, email and token are present.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, EnvHost)
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, EnvEmail)
	}
	if strings.TrimSpace(c.APIToken) == "" {
		missing = append(missing, EnvAPIToken)
	}
	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}
	return nil
}

// BaseURL returns the REST API root, e.g. https://x.atlassian.net/rest/api/3.
func (c Config) BaseURL() string {
	host := strings.TrimRight(strings.TrimSpace(c.Host), "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	version := c.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return host + "/rest/api/" + version
}

// loadFromFile overlays a YAML config file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	// Timeout is kept as a duration string in the file.
	type configFile struct {
		Config  `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}

	var fileCfg configFile
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fileCfg.Host != "" {
		cfg.Host = fileCfg.Host
	}
	if fileCfg.Email != "" {
		cfg.Email = fileCfg.Email
	}
	if fileCfg.APIToken != "" {
		cfg.APIToken = fileCfg.APIToken
	}
	if fileCfg.APIVersion != "" {
		cfg.APIVersion = fileCfg.APIVersion
	}
	if fileCfg.UserAgent != "" {
		cfg.UserAgent = fileCfg.UserAgent
	}
	if fileCfg.PageSize != 0 {
		cfg.PageSize = fileCfg.PageSize
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.Timeout != "" {
		timeout, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.Timeout = timeout
	}

	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := getenv(EnvEmail); v != "" {
		cfg.Email = v
	}
	if v := getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}
	if v := getenv(EnvAPIVersion); v != "" {
		cfg.APIVersion = v
	}
	if v := getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = timeout
	}
	if v := getenv(EnvPageSize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvPageSize, err)
		}
		cfg.PageSize = size
	}
	return nil
}

// withFallback returns a lookup that prefers getenv and falls back to values.
// Like dotenv, the process environment wins over the file.
func withFallback(getenv func(string) string, values map[string]string) func(string) string {
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return values[key]
	}
}
