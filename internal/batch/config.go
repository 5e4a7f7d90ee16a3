package batch

import (
	"errors"
	"fmt"
)

// Config holds the run limits and batch sizing.
type Config struct {
	// MaxFiles refuses runs with more PDFs than this.
	MaxFiles int
	// RecommendedFiles emits a warning above this count.
	RecommendedFiles int
	// BatchSize fixes the number of files processed in parallel; 0 sizes
	// batches from available memory and CPUs.
	BatchSize int
	// MemoryPerFileMB is the memory budget of one in-flight document.
	MemoryPerFileMB int
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxFiles:         500,
		RecommendedFiles: 300,
		MemoryPerFileMB:  200,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max files must be positive, got %d", c.MaxFiles)
	}
	if c.RecommendedFiles <= 0 {
		return fmt.Errorf("recommended files must be positive, got %d", c.RecommendedFiles)
	}
	if c.BatchSize < 0 {
		return errors.New("batch size must not be negative")
	}
	if c.MemoryPerFileMB <= 0 {
		return fmt.Errorf("memory per file must be positive, got %d", c.MemoryPerFileMB)
	}
	return nil
}
