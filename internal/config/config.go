// Package config provides unified configuration for the replaykit pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/replaykit/replaykit/pkg/types"
)

// Config holds the full configuration surface of the recording pipeline.
type Config struct {
	// DataDir is the base directory for spooled segments and the catalog.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Replay holds recording configuration.
	Replay ReplayConfig `json:"replay" yaml:"replay"`

	// Storage configures the persistence backend.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Upload configures the background uploader.
	Upload UploadConfig `json:"upload" yaml:"upload"`

	// Log configures internal diagnostics.
	Log LogConfig `json:"log" yaml:"log"`
}

// ReplayConfig holds the recording-side knobs.
type ReplayConfig struct {
	// SamplingRate is the percentage of views recorded, 0-100.
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate"`

	// TickInterval is the snapshot scheduling interval.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// Privacy is the redaction level: allow, mask, or mask_user_input.
	Privacy string `json:"privacy" yaml:"privacy"`

	// MaxSegmentBytes bounds the serialized size of one segment.
	MaxSegmentBytes int64 `json:"max_segment_bytes" yaml:"max_segment_bytes"`

	// MaxSegmentDuration bounds the time span covered by one segment.
	MaxSegmentDuration time.Duration `json:"max_segment_duration" yaml:"max_segment_duration"`

	// InlineImageThreshold is the image byte size above which content is
	// extracted into a deduplicated resource instead of inlined.
	InlineImageThreshold int `json:"inline_image_threshold" yaml:"inline_image_threshold"`

	// Debug forces 100% sampling.
	Debug bool `json:"debug" yaml:"debug"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	// Type is "local" or "s3".
	Type string `json:"type" yaml:"type"`

	// Path is the spool directory for local storage.
	Path string `json:"path" yaml:"path"`

	// S3 holds S3-compatible backend settings.
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3-compatible intake settings.
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Region       string `json:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style"`
}

// UploadConfig holds background uploader settings.
type UploadConfig struct {
	// Enabled turns the background uploader on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Endpoint overrides the default intake endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Interval is the catalog drain interval.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// BatchSize is the maximum number of segments uploaded per pass.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// LogConfig holds diagnostics settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Replay: ReplayConfig{
			SamplingRate:         100,
			TickInterval:         100 * time.Millisecond,
			Privacy:              string(types.PrivacyMask),
			MaxSegmentBytes:      512 * 1024,
			MaxSegmentDuration:   30 * time.Second,
			InlineImageThreshold: 16 * 1024,
		},
		Storage: StorageConfig{
			Type: "local",
		},
		Upload: UploadConfig{
			Enabled:   true,
			Endpoint:  "https://intake.replaykit.io/api/v2/replay",
			Interval:  5 * time.Second,
			BatchSize: 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve fills in derived paths relative to DataDir.
func (c *Config) Resolve() {
	if c.Storage.Type == "local" && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "spool")
	}
}

// CatalogPath returns the path of the upload catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Replay.SamplingRate < 0 || c.Replay.SamplingRate > 100 {
		return fmt.Errorf("replay.sampling_rate must be in [0, 100], got %v", c.Replay.SamplingRate)
	}
	if c.Replay.TickInterval <= 0 {
		return fmt.Errorf("replay.tick_interval must be positive, got %v", c.Replay.TickInterval)
	}
	if _, err := types.ParsePrivacyLevel(c.Replay.Privacy); err != nil {
		return fmt.Errorf("replay.privacy: %w", err)
	}
	if c.Replay.MaxSegmentBytes <= 0 {
		return fmt.Errorf("replay.max_segment_bytes must be positive, got %d", c.Replay.MaxSegmentBytes)
	}
	if c.Replay.MaxSegmentDuration <= 0 {
		return fmt.Errorf("replay.max_segment_duration must be positive, got %v", c.Replay.MaxSegmentDuration)
	}
	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket must be set when storage.type is s3")
		}
	default:
		return fmt.Errorf("storage.type must be local or s3, got %q", c.Storage.Type)
	}
	if c.Upload.Enabled && c.Upload.Endpoint == "" {
		return fmt.Errorf("upload.endpoint must be set when upload is enabled")
	}
	return nil
}

// PrivacyLevel returns the parsed privacy level. Call after Validate.
func (c *Config) PrivacyLevel() types.PrivacyLevel {
	lvl, err := types.ParsePrivacyLevel(c.Replay.Privacy)
	if err != nil {
		return types.PrivacyMask
	}
	return lvl
}

// EffectiveSamplingRate returns the sampling rate with the debug override
// applied.
func (c *Config) EffectiveSamplingRate() float64 {
	if c.Replay.Debug {
		return 100
	}
	return c.Replay.SamplingRate
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overrides configuration from environment variables.
// Environment variables use the REPLAYKIT_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("REPLAYKIT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("REPLAYKIT_SAMPLING_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Replay.SamplingRate = f
		}
	}
	if v := os.Getenv("REPLAYKIT_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Replay.TickInterval = d
		}
	}
	if v := os.Getenv("REPLAYKIT_PRIVACY"); v != "" {
		cfg.Replay.Privacy = v
	}
	if v := os.Getenv("REPLAYKIT_MAX_SEGMENT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Replay.MaxSegmentBytes = n
		}
	}
	if v := os.Getenv("REPLAYKIT_MAX_SEGMENT_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Replay.MaxSegmentDuration = d
		}
	}
	if v := os.Getenv("REPLAYKIT_DEBUG"); v != "" {
		cfg.Replay.Debug = v == "true" || v == "1"
	}

	if v := os.Getenv("REPLAYKIT_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("REPLAYKIT_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("REPLAYKIT_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("REPLAYKIT_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("REPLAYKIT_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}

	if v := os.Getenv("REPLAYKIT_UPLOAD_ENDPOINT"); v != "" {
		cfg.Upload.Endpoint = v
	}
	if v := os.Getenv("REPLAYKIT_UPLOAD_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upload.Interval = d
		}
	}

	if v := os.Getenv("REPLAYKIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.Storage.Path}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
