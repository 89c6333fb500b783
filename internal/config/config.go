package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/protocol"
	"github.com/vango-dev/gamewire/pkg/schema"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "gamewire.json"

	// YAMLConfigFileName is read when no gamewire.json exists.
	YAMLConfigFileName = "gamewire.yaml"

	// DefaultPort is the default session server port.
	DefaultPort = 7878

	// DefaultHost is the default session server host.
	DefaultHost = "localhost"

	// DefaultWebSocketPath is where the session server accepts peers.
	DefaultWebSocketPath = "/ws"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultCaptureDir is the default capture directory.
	DefaultCaptureDir = "captures"

	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second
)

// Config represents the complete gamewire.json configuration.
type Config struct {
	// Name labels this deployment in logs.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Server contains session server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Codec contains wire limits.
	Codec CodecConfig `json:"codec,omitempty" yaml:"codec,omitempty"`

	// Limits holds reference-data bounds keyed by table name,
	// e.g. {"BattlePetSpecies": 1500}.
	Limits map[string]uint64 `json:"limits,omitempty" yaml:"limits,omitempty"`

	// Capture selects where reference captures are stored.
	Capture CaptureConfig `json:"capture,omitempty" yaml:"capture,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains session server settings.
type ServerConfig struct {
	Host          string `json:"host,omitempty" yaml:"host,omitempty"`
	Port          int    `json:"port,omitempty" yaml:"port,omitempty"`
	WebSocketPath string `json:"websocketPath,omitempty" yaml:"websocketPath,omitempty"`
	MetricsPath   string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// WriteTimeout is a duration string such as "10s".
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// AllowedOrigins lists origins accepted on upgrade. Empty accepts
	// same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// CodecConfig contains wire limits.
type CodecConfig struct {
	// MaxFrameSize is the largest accepted frame payload in bytes.
	MaxFrameSize int `json:"maxFrameSize,omitempty" yaml:"maxFrameSize,omitempty"`
}

// CaptureConfig selects the capture store.
type CaptureConfig struct {
	// Backend is file, bolt or s3. Default: s3 when S3 is set, file
	// otherwise.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the file store directory. The bolt store keeps
	// captures.db inside it.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Compression is none, lz4 or zstd.
	Compression string `json:"compression,omitempty" yaml:"compression,omitempty"`

	// Record makes serve store every inbound frame.
	Record bool `json:"record,omitempty" yaml:"record,omitempty"`

	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// Capture backends.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
	BackendS3   = "s3"
)

// S3Config addresses an S3 (or S3-compatible) capture bucket.
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" yaml:"usePathStyle,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for gamewire.json, then gamewire.yaml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if alt := filepath.Join(dir, YAMLConfigFileName); !fileExists(path) && fileExists(alt) {
		path = alt
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W008").
				WithDetail("No gamewire.json found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("W009").Wrap(err)
	}

	cfg := &Config{}
	name := filepath.Base(path)
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("W009").
			WithDetail("Failed to parse " + name + ": " + err.Error()).
			WithSuggestion("Check the syntax of " + name).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML when
// the path ends in .yaml or .yml.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("W009").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W009").Wrap(err)
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
	if c.Server.WebSocketPath == "" {
		c.Server.WebSocketPath = DefaultWebSocketPath
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout.String()
	}

	if c.Codec.MaxFrameSize == 0 {
		c.Codec.MaxFrameSize = protocol.MaxPayloadSize
	}

	if c.Capture.Dir == "" {
		c.Capture.Dir = DefaultCaptureDir
	}
	if c.Capture.Backend == "" {
		c.Capture.Backend = BackendFile
		if c.Capture.S3 != nil {
			c.Capture.Backend = BackendS3
		}
	}
	if c.Capture.Compression == "" {
		c.Capture.Compression = "zstd"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("W009").WithDetail(detail)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.Server.WebSocketPath, "/") || !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return invalid("server paths must start with /")
	}
	if c.Server.WebSocketPath == c.Server.MetricsPath {
		return invalid("server.websocketPath and server.metricsPath must differ")
	}
	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return invalid("server.writeTimeout: " + err.Error())
	}
	if c.Codec.MaxFrameSize < 1 || c.Codec.MaxFrameSize > protocol.MaxPayloadSize {
		return invalid(fmt.Sprintf("codec.maxFrameSize must be between 1 and %d", protocol.MaxPayloadSize))
	}
	switch c.Capture.Backend {
	case BackendFile, BackendBolt:
	case BackendS3:
		if c.Capture.S3 == nil || c.Capture.S3.Bucket == "" {
			return invalid("capture.s3.bucket is required for the s3 backend")
		}
	default:
		return invalid("capture.backend must be file, bolt or s3")
	}
	if c.Capture.S3 != nil && c.Capture.S3.Bucket == "" {
		return invalid("capture.s3.bucket is required when capture.s3 is set")
	}
	if _, err := capture.ParseCompression(c.Capture.Compression); err != nil {
		return invalid("capture.compression must be none, lz4 or zstd")
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log.level: " + err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json")
	}
	return nil
}

// Address returns the listen address of the session server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// WriteTimeout returns the parsed frame write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.WriteTimeout)
	if err != nil {
		return DefaultWriteTimeout
	}
	return d
}

// ReferenceLimits returns the configured reference bounds. The map is
// copied so later edits to c do not leak into running decoders.
func (c *Config) ReferenceLimits() schema.StaticLimits {
	out := make(schema.StaticLimits, len(c.Limits))
	for k, v := range c.Limits {
		out[k] = v
	}
	return out
}

// CapturePath returns the absolute capture directory.
func (c *Config) CapturePath() string {
	if filepath.IsAbs(c.Capture.Dir) {
		return c.Capture.Dir
	}
	return filepath.Join(c.Dir(), c.Capture.Dir)
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Logger builds the process logger described by Log.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CaptureCompression returns the parsed capture compression.
func (c *Config) CaptureCompression() capture.Compression {
	comp, err := capture.ParseCompression(c.Capture.Compression)
	if err != nil {
		return capture.CompressionZstd
	}
	return comp
}

// Exists checks if a gamewire.json or gamewire.yaml file exists in the
// directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) ||
		fileExists(filepath.Join(dir, YAMLConfigFileName))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// FindProjectRoot searches upward from startDir for a gamewire.json.
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
			return "", errors.New("W008").
				WithDetail("No gamewire.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
