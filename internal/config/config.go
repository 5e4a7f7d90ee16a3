// Package config loads ocrheader settings from a YAML file, OCRHEADER_
// environment variables and the legacy unprefixed variables (DATA_PATH,
// MAX_FILES, SHARPNESS, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/ocrheader/internal/acquire"
	"github.com/MeKo-Tech/ocrheader/internal/ocr"
	"github.com/MeKo-Tech/ocrheader/internal/region"
)

const infoLevel = "info"

// ErrMissingRoots is returned by CheckRoots when a folder root is unset or
// not a directory.
var ErrMissingRoots = errors.New("missing folder roots")

// Config represents the complete configuration of the ocrheader service.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Paths   PathsConfig   `mapstructure:"paths" yaml:"paths" json:"paths"`
	Limits  LimitsConfig  `mapstructure:"limits" yaml:"limits" json:"limits"`
	Region  RegionConfig  `mapstructure:"region" yaml:"region" json:"region"`
	Acquire AcquireConfig `mapstructure:"acquire" yaml:"acquire" json:"acquire"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch" json:"watch"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Debug   DebugConfig   `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// DefaultConfig returns a configuration with the stock header geometry and
// limits. Folder roots have no defaults.
func DefaultConfig() Config {
	rc := region.DefaultConfig()
	bc := ocr.DefaultBreakerConfig()
	work := workDir()
	return Config{
		LogLevel: infoLevel,
		Paths: PathsConfig{
			Scratch: filepath.Join(work, "image"),
			Results: filepath.Join(work, "result_log"),
		},
		Limits: LimitsConfig{
			MaxFiles:         500,
			RecommendedFiles: 300,
		},
		Region: RegionConfig{
			Sharpness:     rc.Sharpness,
			CropWidth:     rc.CropWidth,
			CropHeight:    rc.CropHeight,
			TextPadding:   rc.TextPadding,
			MinCellWidth:  rc.MinCellWidth,
			MinCellHeight: rc.MinCellHeight,
		},
		Acquire: AcquireConfig{
			DPI:        acquire.DefaultDPI,
			TimeoutSec: int(acquire.DefaultTimeout / time.Second),
			MaxRetries: acquire.DefaultMaxRetries,
			Pdftoppm:   "pdftoppm",
		},
		OCR: OCRConfig{
			Binary:   "tesseract",
			Language: "eng",
			Breaker: BreakerConfig{
				MinRequests:    int(bc.MinRequests),
				FailureRatio:   bc.FailureRatio,
				OpenTimeoutSec: int(bc.OpenTimeout / time.Second),
			},
		},
		Watch: WatchConfig{
			Schedule: "@every 5s",
			Notify:   true,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             5,
			},
		},
	}
}

func workDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "OCRHeader")
	}
	return "OCRHeader"
}

// Validate checks value ranges. Folder roots are checked by CheckRoots.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Limits.MaxFiles <= 0 {
		return fmt.Errorf("invalid max files: %d (must be positive)", c.Limits.MaxFiles)
	}
	if c.Limits.RecommendedFiles <= 0 || c.Limits.RecommendedFiles > c.Limits.MaxFiles {
		return fmt.Errorf("invalid recommended files: %d (must be between 1 and %d)", c.Limits.RecommendedFiles, c.Limits.MaxFiles)
	}

	for name, v := range map[string]int{
		"region.crop_width":      c.Region.CropWidth,
		"region.crop_height":     c.Region.CropHeight,
		"region.min_cell_width":  c.Region.MinCellWidth,
		"region.min_cell_height": c.Region.MinCellHeight,
		"acquire.dpi":            c.Acquire.DPI,
		"acquire.timeout_sec":    c.Acquire.TimeoutSec,
		"acquire.max_retries":    c.Acquire.MaxRetries,
	} {
		if v <= 0 {
			return fmt.Errorf("invalid %s: %d (must be positive)", name, v)
		}
	}
	if c.Region.TextPadding < 0 {
		return fmt.Errorf("invalid region.text_padding: %d (must not be negative)", c.Region.TextPadding)
	}
	if c.Region.Sharpness < 0 {
		return fmt.Errorf("invalid region.sharpness: %.2f (must not be negative)", c.Region.Sharpness)
	}
	if r := c.OCR.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("invalid ocr.breaker.failure_ratio: %.2f (must be between 0.0 and 1.0)", r)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.RequestsPerMinute <= 0 || rl.Burst <= 0) {
		return fmt.Errorf("invalid server.rate_limit: %d/min burst %d (both must be positive)", rl.RequestsPerMinute, rl.Burst)
	}
	return nil
}

// CheckRoots reports every folder root that is unset or not a directory.
func (c *Config) CheckRoots() error {
	roots := []struct {
		env, path string
	}{
		{"DATA_PATH", c.Paths.Data},
		{"SUCCESS_PATH", c.Paths.Success},
		{"FAILED_PATH", c.Paths.Failed},
		{"BACKUP_PATH", c.Paths.Backup},
		{"LOG_PATH", c.Paths.Log},
	}
	var missing []string
	for _, r := range roots {
		if r.path == "" {
			missing = append(missing, r.env+" is not set")
			continue
		}
		if info, err := os.Stat(r.path); err != nil || !info.IsDir() {
			missing = append(missing, fmt.Sprintf("%s (%s) is not a directory", r.env, r.path))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRoots, strings.Join(missing, "; "))
	}
	return nil
}

// RegionConfig converts the table pass settings.
func (c *Config) RegionConfig() region.Config {
	return region.Config{
		Sharpness:     c.Region.Sharpness,
		CropWidth:     c.Region.CropWidth,
		CropHeight:    c.Region.CropHeight,
		TextPadding:   c.Region.TextPadding,
		MinCellWidth:  c.Region.MinCellWidth,
		MinCellHeight: c.Region.MinCellHeight,
	}
}

// BreakerConfig converts the OCR circuit breaker settings.
func (c *Config) BreakerConfig() ocr.BreakerConfig {
	cfg := ocr.DefaultBreakerConfig()
	if c.OCR.Breaker.MinRequests > 0 {
		cfg.MinRequests = uint32(c.OCR.Breaker.MinRequests) //nolint:gosec // G115: checked positive
	}
	if c.OCR.Breaker.FailureRatio > 0 {
		cfg.FailureRatio = c.OCR.Breaker.FailureRatio
	}
	if c.OCR.Breaker.OpenTimeoutSec > 0 {
		cfg.OpenTimeout = time.Duration(c.OCR.Breaker.OpenTimeoutSec) * time.Second
	}
	return cfg
}

// AcquireTimeout is the per-attempt rasterization timeout.
func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.Acquire.TimeoutSec) * time.Second
}
