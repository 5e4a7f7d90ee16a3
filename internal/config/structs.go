package config

// PathsConfig holds the folder roots. Data, Success, Failed, Backup and Log
// must be set before a run starts.
type PathsConfig struct {
	Data    string `mapstructure:"data" yaml:"data" json:"data"`
	Success string `mapstructure:"success" yaml:"success" json:"success"`
	Failed  string `mapstructure:"failed" yaml:"failed" json:"failed"`
	Backup  string `mapstructure:"backup" yaml:"backup" json:"backup"`
	Log     string `mapstructure:"log" yaml:"log" json:"log"`

	// Working folders; Scratch is emptied at start, Results is created if absent.
	Scratch string `mapstructure:"scratch" yaml:"scratch" json:"scratch"`
	Results string `mapstructure:"results" yaml:"results" json:"results"`
}

// LimitsConfig bounds the number of files in one run.
type LimitsConfig struct {
	MaxFiles         int `mapstructure:"max_files" yaml:"max_files" json:"max_files"`
	RecommendedFiles int `mapstructure:"recommended_files" yaml:"recommended_files" json:"recommended_files"`
}

// RegionConfig tunes the old-format table pass.
type RegionConfig struct {
	Sharpness     float64 `mapstructure:"sharpness" yaml:"sharpness" json:"sharpness"`
	CropWidth     int     `mapstructure:"crop_width" yaml:"crop_width" json:"crop_width"`
	CropHeight    int     `mapstructure:"crop_height" yaml:"crop_height" json:"crop_height"`
	TextPadding   int     `mapstructure:"text_padding" yaml:"text_padding" json:"text_padding"`
	MinCellWidth  int     `mapstructure:"min_cell_width" yaml:"min_cell_width" json:"min_cell_width"`
	MinCellHeight int     `mapstructure:"min_cell_height" yaml:"min_cell_height" json:"min_cell_height"`
}

// AcquireConfig contains rasterization settings.
type AcquireConfig struct {
	DPI        int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	Pdftoppm   string `mapstructure:"pdftoppm" yaml:"pdftoppm" json:"pdftoppm"`
}

// OCRConfig selects the OCR engine binary and its circuit breaker.
type OCRConfig struct {
	Binary   string        `mapstructure:"binary" yaml:"binary" json:"binary"`
	Language string        `mapstructure:"language" yaml:"language" json:"language"`
	Breaker  BreakerConfig `mapstructure:"breaker" yaml:"breaker" json:"breaker"`
}

// BreakerConfig contains circuit breaker settings for the OCR engine.
type BreakerConfig struct {
	MinRequests    int     `mapstructure:"min_requests" yaml:"min_requests" json:"min_requests"`
	FailureRatio   float64 `mapstructure:"failure_ratio" yaml:"failure_ratio" json:"failure_ratio"`
	OpenTimeoutSec int     `mapstructure:"open_timeout_sec" yaml:"open_timeout_sec" json:"open_timeout_sec"`
}

// WatchConfig contains settings for the auto-processing mode.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule" json:"schedule"`
	Notify   bool   `mapstructure:"notify" yaml:"notify" json:"notify"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig limits control requests per client.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int  `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// DebugConfig contains diagnostic toggles.
type DebugConfig struct {
	Overlay bool `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
}
