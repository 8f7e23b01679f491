package config

import (
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vango-dev/urlsync/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "urlsync.json"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultSeparator joins array items in query values.
	DefaultSeparator = ","

	// DefaultLogLevel is the default slog level name.
	DefaultLogLevel = "info"
)

// Config represents the complete urlsync.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Schema is the path to the YAML schema document.
	Schema string `json:"schema,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Query contains query string formatting configuration.
	Query QueryConfig `json:"query,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains instrumentation configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// MetricsPath is the route of the Prometheus handler.
	MetricsPath string `json:"metricsPath,omitempty"`

	// AllowedOrigins lists the origins accepted by the socket upgrade.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// QueryConfig contains query string settings.
type QueryConfig struct {
	// Initial is the query string the shared location starts from.
	Initial string `json:"initial,omitempty"`

	// Separator joins array items (default ",").
	Separator string `json:"separator,omitempty"`

	// Sort orders keys when stringifying.
	Sort bool `json:"sort,omitempty"`

	// KeepEmptyString keeps keys whose value is "".
	KeepEmptyString bool `json:"keepEmptyString,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains instrumentation settings.
type MetricsConfig struct {
	// Disabled turns off the Prometheus collector and route.
	Disabled bool `json:"disabled,omitempty"`

	// Namespace is the Prometheus namespace (default "urlsync").
	Namespace string `json:"namespace,omitempty"`

	// Tracing enables the OpenTelemetry probe.
	Tracing bool `json:"tracing,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			MetricsPath: DefaultMetricsPath,
		},
		Query: QueryConfig{
			Separator: DefaultSeparator,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "urlsync",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for urlsync.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No urlsync.json found in " + filepath.Dir(path)).
				WithSuggestion("Create urlsync.json or pass --schema directly")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse urlsync.json: " + err.Error()).
			WithSuggestion("Check that urlsync.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Query.Separator == "" {
		c.Query.Separator = DefaultSeparator
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "urlsync"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New(errors.CodeInvalidPort).
			WithDetail("Port must be between 1 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.metricsPath must start with /")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level)).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("log.format must be text or json")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SchemaPath returns the absolute path to the schema document, or "" if none
// is configured.
func (c *Config) SchemaPath() string {
	if c.Schema == "" {
		return ""
	}
	if filepath.IsAbs(c.Schema) {
		return c.Schema
	}
	return filepath.Join(c.Dir(), c.Schema)
}

// LogLevel returns the configured slog level (info when unknown).
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing urlsync.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No urlsync.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
