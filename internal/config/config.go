// Package config collects the settings of the tablestore command.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/engine"
	"github.com/leengari/tablestore/internal/recorder"
)

// Environment variables consulted by Default
const (
	EnvDB     = "TABLESTORE_DB"
	EnvSeqURL = "TABLESTORE_SEQ_URL"
)

// Log formats understood by the logging package
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// Config holds every tunable of the CLI
type Config struct {
	DBPath      string
	StoreName   string
	ChunkLength int
	Sync        bool
	LogLevel    string
	LogFormat   string
	SeqURL      string
	DumpCount   int
}

// Default returns the built-in settings, overridden by the environment
func Default() Config {
	cfg := Config{
		DBPath:      "tablestore.db",
		StoreName:   "tablestore",
		ChunkLength: engine.DefaultChunkLength,
		Sync:        true,
		LogLevel:    "info",
		LogFormat:   FormatText,
		DumpCount:   recorder.DefaultDumpCount,
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvSeqURL); v != "" {
		cfg.SeqURL = v
	}
	return cfg
}

// RegisterFlags binds the config fields to command-line flags
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "store directory (env "+EnvDB+")")
	fs.StringVar(&c.StoreName, "name", c.StoreName, "store name recorded when a store is created")
	fs.IntVar(&c.ChunkLength, "chunk", c.ChunkLength, "rows read per query chunk")
	fs.BoolVar(&c.Sync, "sync", c.Sync, "fsync rows before committing them")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "text, json or zap")
	fs.StringVar(&c.SeqURL, "seq", c.SeqURL, "Seq server URL, empty to disable (env "+EnvSeqURL+")")
	fs.IntVar(&c.DumpCount, "dump-count", c.DumpCount, "datums buffered by the recorder before a flush")
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var err error
	if c.DBPath == "" {
		err = multierr.Append(err, fmt.Errorf("db path must not be empty"))
	}
	if c.ChunkLength <= 0 {
		err = multierr.Append(err, fmt.Errorf("chunk length must be positive, got %d", c.ChunkLength))
	}
	if c.DumpCount <= 0 {
		err = multierr.Append(err, fmt.Errorf("dump count must be positive, got %d", c.DumpCount))
	}
	if _, levelErr := c.Level(); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}
	switch c.LogFormat {
	case FormatText, FormatJSON, FormatZap:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return err
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// StoreOptions converts the config into engine options
func (c Config) StoreOptions() []engine.Option {
	return []engine.Option{
		engine.WithName(c.StoreName),
		engine.WithChunkLength(c.ChunkLength),
		engine.WithSync(c.Sync),
	}
}
