package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "ocrheader"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "OCRHEADER"
)

// legacyEnv maps configuration keys to the unprefixed variable names the
// deployment's .env files use.
var legacyEnv = map[string]string{
	"paths.data":               "DATA_PATH",
	"paths.success":            "SUCCESS_PATH",
	"paths.failed":             "FAILED_PATH",
	"paths.backup":             "BACKUP_PATH",
	"paths.log":                "LOG_PATH",
	"limits.max_files":         "MAX_FILES",
	"limits.recommended_files": "RECOMMENDED_FILES",
	"region.sharpness":         "SHARPNESS",
	"region.crop_width":        "CROP_WIDTH",
	"region.crop_height":       "CROP_HEIGHT",
	"region.text_padding":      "TEXT_PADDING",
	"region.min_cell_width":    "MIN_CELL_WIDTH",
	"region.min_cell_height":   "MIN_CELL_HEIGHT",
}

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, so flags bound
// by the root command take part in resolution.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads the first ocrheader.yaml found on the search paths, applies
// environment overrides and validates the result. A missing file is fine.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	if err := l.prepare(); err != nil {
		return nil, err
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path. An empty
// path falls back to Load.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	if err := l.prepare(); err != nil {
		return nil, err
	}
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) prepare() error {
	if err := l.setupEnvironmentVariables(); err != nil {
		return err
	}
	l.setDefaults()
	return nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if config.Verbose && config.LogLevel == infoLevel {
		config.LogLevel = "debug"
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables enables OCRHEADER_ variables for every key and
// binds the legacy names. The prefixed name wins when both are set.
func (l *Loader) setupEnvironmentVariables() error {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := l.v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("bind %s: %w", legacy, err)
		}
	}
	return nil
}

// setDefaults registers every key so env-only settings unmarshal too.
func (l *Loader) setDefaults() {
	for key, value := range defaultValues(DefaultConfig()) {
		l.v.SetDefault(key, value)
	}
}

func defaultValues(d Config) map[string]any {
	return map[string]any{
		"log_level": d.LogLevel,
		"verbose":   d.Verbose,

		"paths.data":    d.Paths.Data,
		"paths.success": d.Paths.Success,
		"paths.failed":  d.Paths.Failed,
		"paths.backup":  d.Paths.Backup,
		"paths.log":     d.Paths.Log,
		"paths.scratch": d.Paths.Scratch,
		"paths.results": d.Paths.Results,

		"limits.max_files":         d.Limits.MaxFiles,
		"limits.recommended_files": d.Limits.RecommendedFiles,

		"region.sharpness":       d.Region.Sharpness,
		"region.crop_width":      d.Region.CropWidth,
		"region.crop_height":     d.Region.CropHeight,
		"region.text_padding":    d.Region.TextPadding,
		"region.min_cell_width":  d.Region.MinCellWidth,
		"region.min_cell_height": d.Region.MinCellHeight,

		"acquire.dpi":         d.Acquire.DPI,
		"acquire.timeout_sec": d.Acquire.TimeoutSec,
		"acquire.max_retries": d.Acquire.MaxRetries,
		"acquire.pdftoppm":    d.Acquire.Pdftoppm,

		"ocr.binary":                   d.OCR.Binary,
		"ocr.language":                 d.OCR.Language,
		"ocr.breaker.min_requests":     d.OCR.Breaker.MinRequests,
		"ocr.breaker.failure_ratio":    d.OCR.Breaker.FailureRatio,
		"ocr.breaker.open_timeout_sec": d.OCR.Breaker.OpenTimeoutSec,

		"watch.schedule": d.Watch.Schedule,
		"watch.notify":   d.Watch.Notify,

		"server.host":                           d.Server.Host,
		"server.port":                           d.Server.Port,
		"server.cors_origin":                    d.Server.CORSOrigin,
		"server.shutdown_timeout":               d.Server.ShutdownTimeout,
		"server.rate_limit.enabled":             d.Server.RateLimit.Enabled,
		"server.rate_limit.requests_per_minute": d.Server.RateLimit.RequestsPerMinute,
		"server.rate_limit.burst":               d.Server.RateLimit.Burst,

		"debug.overlay": d.Debug.Overlay,
	}
}

// GetResolvedConfig returns the current resolved settings.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// GenerateDefaultConfigFile writes the default configuration as YAML.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	data, err := MarshalYAML(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// MarshalYAML renders cfg in the layout read by Load.
func MarshalYAML(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// GetConfigSearchPaths lists the folders searched for ocrheader.yaml, in order.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "ocrheader"))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "ocrheader"))
	}
	return append(paths, "/etc/ocrheader")
}
