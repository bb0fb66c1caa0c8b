// Package config loads runtime settings from the environment, an optional
// .env file, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pranayb2773/products-parser/pkg/sysmem"
)

// Config is the resolved runtime configuration. All settings can be
// overridden with PP_-prefixed environment variables (PP_TEMP_DIR,
// PP_CHUNK_SIZE, PP_WORKERS, PP_COMPRESS_SPILLS, PP_DEBUG, PP_HUMAN_LOG).
type Config struct {
	// TempDir holds partition, spill, and result files.
	TempDir string

	// ChunkSize is the in-memory aggregate entry threshold before a spill.
	ChunkSize int

	// Workers is the default worker count for parallel runs.
	Workers int

	// CompressSpills writes zstd-compressed spill and result files.
	CompressSpills bool

	// Debug enables debug-level logging.
	Debug bool

	// HumanLog uses the console log writer instead of JSON.
	HumanLog bool
}

const (
	// assumedEntryBytes is a rough in-memory cost of one aggregate entry,
	// record fields plus map overhead.
	assumedEntryBytes = 512

	minChunkSize = 100_000
	maxChunkSize = 10_000_000
)

// Load reads configuration. A .env file in the working directory is applied
// first when present; real environment variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PP")
	v.AutomaticEnv()

	v.SetDefault("temp_dir", filepath.Join(os.TempDir(), "products-parser"))
	v.SetDefault("chunk_size", defaultChunkSize())
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("compress_spills", true)
	v.SetDefault("debug", false)
	v.SetDefault("human_log", false)

	cfg := &Config{
		TempDir:        v.GetString("temp_dir"),
		ChunkSize:      v.GetInt("chunk_size"),
		Workers:        v.GetInt("workers"),
		CompressSpills: v.GetBool("compress_spills"),
		Debug:          v.GetBool("debug"),
		HumanLog:       v.GetBool("human_log"),
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must not be negative, got %d", cfg.ChunkSize)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

// defaultChunkSize sizes the spill threshold so one aggregate uses roughly a
// quarter of system RAM, clamped to a sane range.
func defaultChunkSize() int {
	entries := sysmem.TotalBytes() / 4 / assumedEntryBytes
	if entries < minChunkSize {
		return minChunkSize
	}
	if entries > maxChunkSize {
		return maxChunkSize
	}
	return int(entries)
}
