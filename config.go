package treejs

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the limits and host settings of a VM.
type Config struct {
	// nesting limit of JS function calls
	MaxCallDepth int `toml:"max_call_depth"`
	// longest prototype chain a property lookup follows
	MaxProtoDepth int `toml:"max_proto_depth"`
	// directories searched by load(), in order
	LoadPath []string `toml:"load_path"`
	// seed of Math.random; 0 seeds from the clock
	RandomSeed int64 `toml:"random_seed"`
	// zap level name, used by the CLIs
	LogLevel string `toml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		MaxCallDepth:  1000,
		MaxProtoDepth: 10000,
		LogLevel:      "info",
	}
}

// LoadConfig reads a TOML config file. Settings the file doesn't mention
// keep their default.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return config, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

func (c Config) validate() error {
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	if c.MaxProtoDepth <= 0 {
		return fmt.Errorf("max_proto_depth must be positive, got %d", c.MaxProtoDepth)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (c Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger builds the console logger used by the command line tools, at
// LogLevel.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	return zc.Build()
}
