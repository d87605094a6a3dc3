package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FILEHTTPD_PORT.
const EnvPrefix = "FILEHTTPD"

const (
	MinPort = 1025
	MaxPort = 65535
)

const (
	DefaultReadTimeout = 30 * time.Second
	DefaultMaxLine     = 8 * 1024
)

// Messages printed to standard error for startup argument errors.
const (
	MandatoryMessage = "Mandatory args missing!"
	PortRangeMessage = "Use a port number between 1025 and 65535"
)

var (
	ErrMissingMandatory = errors.New("mandatory args missing")
	ErrPortRange        = errors.New("port out of range")
	ErrInvalidSetting   = errors.New("invalid setting")
)

// Config is the server configuration. It is set once at startup and never
// mutated afterwards.
type Config struct {
	// PortArg is the port as given; "" means it was not given at all.
	// Validate parses it into Port.
	PortArg   string `mapstructure:"port"`
	Port      int    `mapstructure:"-"`
	Root      string `mapstructure:"root"`
	Token     string `mapstructure:"token"`
	TokenHash string `mapstructure:"token_hash"`

	// ReadTimeout bounds every read from a client; 0 disables it.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	MaxLine     int           `mapstructure:"max_line"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("port", "")
	v.SetDefault("root", "")
	v.SetDefault("token", "")
	v.SetDefault("token_hash", "")
	v.SetDefault("read_timeout", DefaultReadTimeout)
	v.SetDefault("max_line", DefaultMaxLine)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	return v
}

// Load reads configFile when given, then decodes and validates everything v
// knows about.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks mandatory settings and ranges, and sets Port.
func (c *Config) Validate() error {
	portArg := strings.TrimSpace(c.PortArg)
	if portArg == "" || c.Root == "" || (c.Token == "" && c.TokenHash == "") {
		return ErrMissingMandatory
	}
	port, err := strconv.Atoi(portArg)
	if err != nil || port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: %q", ErrPortRange, c.PortArg)
	}
	c.Port = port

	if c.Token != "" && c.TokenHash != "" {
		return fmt.Errorf("%w: token and token_hash are mutually exclusive", ErrInvalidSetting)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("%w: read_timeout %s", ErrInvalidSetting, c.ReadTimeout)
	}
	if c.MaxLine < 0 {
		return fmt.Errorf("%w: max_line %d", ErrInvalidSetting, c.MaxLine)
	}
	return nil
}
