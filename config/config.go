package config

import (
	"fmt"
	"runtime"

	"github.com/achilleasa/raycore/bvh"
	"github.com/achilleasa/raycore/log"
	"github.com/kelseyhightower/envconfig"
)

// The prefix for all environment variables.
const envPrefix = "RAYCORE"

type Config struct {
	BvhBins     int    `envconfig:"BVH_BINS" default:"10"`
	BvhMaxDepth int    `envconfig:"BVH_MAX_DEPTH" default:"64"`
	Workers     int    `envconfig:"WORKERS" default:"0"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"notice"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all values are within range.
func (c *Config) Validate() error {
	if c.BvhBins < 2 {
		return fmt.Errorf("config: BVH_BINS must be at least 2; got %d", c.BvhBins)
	}
	if c.BvhMaxDepth < 1 {
		return fmt.Errorf("config: BVH_MAX_DEPTH must be at least 1; got %d", c.BvhMaxDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: WORKERS must not be negative; got %d", c.Workers)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// BvhOptions returns the builder options.
func (c *Config) BvhOptions() bvh.Options {
	return bvh.Options{BinCount: c.BvhBins, MaxDepth: c.BvhMaxDepth}
}

// WorkerCount returns the number of query workers; 0 selects GOMAXPROCS.
func (c *Config) WorkerCount() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Level returns the parsed log level.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.Notice
	}
	return level
}
