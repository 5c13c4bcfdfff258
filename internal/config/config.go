// Package config loads dspace-client settings.
//
// Sources are applied in order, later ones overriding earlier ones:
// built-in defaults, a YAML file, DSPACE_* environment variables and
// finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the environment variable prefix.
// DSPACE_LOG_LEVEL sets log.level.
const DefaultEnvPrefix = "DSPACE_"

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Config is the command-line client configuration.
type Config struct {
	URL      string        `koanf:"url"`
	Email    string        `koanf:"email"`
	Password string        `koanf:"password"`
	Token    string        `koanf:"token"`
	Format   string        `koanf:"format"`
	Output   string        `koanf:"output"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
	Proxy    string        `koanf:"proxy"`

	Gateway GatewayConfig `koanf:"gateway"`
	Log     LogConfig     `koanf:"log"`
	Limits  LimitsConfig  `koanf:"limits"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// Gateway authentication schemes.
const (
	GatewayNone  = "none"
	GatewayBasic = "basic"
	GatewayNTLM  = "ntlm"
)

// GatewayConfig holds HTTP-level credentials for a repository published
// behind a protected web server, independent of the DSpace login.
type GatewayConfig struct {
	Auth     string `koanf:"auth"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Domain   string `koanf:"domain"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
	JSON  bool   `koanf:"json"`
}

// LimitsConfig throttles requests. Zero disables a limit.
type LimitsConfig struct {
	Concurrent int     `koanf:"concurrent"`
	Rate       float64 `koanf:"rate"`
	Burst      int     `koanf:"burst"`
}

// MetricsConfig controls the Prometheus text file written on exit.
type MetricsConfig struct {
	File string `koanf:"file"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"format":       "json",
		"output":       OutputTable,
		"timeout":      "60s",
		"log.level":    "warn",
		"gateway.auth": GatewayNone,
	}
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		errs = append(errs, fmt.Errorf("output must be table, json or yaml, got %q", c.Output))
	}
	switch c.Format {
	case "json", "xml":
	default:
		errs = append(errs, fmt.Errorf("format must be json or xml, got %q", c.Format))
	}
	switch c.Gateway.Auth {
	case GatewayNone:
	case GatewayBasic, GatewayNTLM:
		if c.Gateway.Username == "" {
			errs = append(errs, fmt.Errorf("gateway.username is required for %s gateway auth", c.Gateway.Auth))
		}
	default:
		errs = append(errs, fmt.Errorf("gateway.auth must be none, basic or ntlm, got %q", c.Gateway.Auth))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.Limits.Concurrent < 0 || c.Limits.Rate < 0 || c.Limits.Burst < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	return errors.Join(errs...)
}

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a loader with the defaults already applied.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	// Loading a plain map cannot fail.
	_ = l.LoadMap(Defaults())
	return l
}

// Load reads the file (if any) and the environment, then applies flags,
// which hold only the values set explicitly on the command line.
func (l *Loader) Load(flags map[string]any) (*Config, error) {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return nil, err
		}
	}
	if err := l.LoadEnv(); err != nil {
		return nil, err
	}
	if len(flags) > 0 {
		if err := l.LoadMap(flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.Gateway.Auth = strings.ToLower(cfg.Gateway.Auth)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads a YAML file.
func (l *Loader) LoadFile(path string) error {
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("config: load file %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads prefixed environment variables.
// DSPACE_LIMITS_CONCURRENT becomes limits.concurrent.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("config: load env: %w", err)
	}
	return nil
}

// LoadMap loads flat "a.b" keyed values.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("config: load map: %w", err)
	}
	return nil
}

// Get returns a raw value by key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider loads configuration from a map with dotted keys.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		setPath(out, strings.Split(k, "."), v)
	}
	return out, nil
}

func setPath(dst map[string]any, path []string, v any) {
	for _, p := range path[:len(path)-1] {
		next, ok := dst[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			dst[p] = next
		}
		dst = next
	}
	dst[path[len(path)-1]] = v
}
