// Package config loads the YAML configuration shared by the CLI, the
// script engine and the HTTP server.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/store"
	"github.com/chazu/hullworld/pkg/world"
	"gopkg.in/yaml.v3"
)

type Config struct {
	World     WorldConfig    `yaml:"world"`
	Tolerance geom.Tolerance `yaml:"tolerance"`
	Store     StoreConfig    `yaml:"store"`
	Server    ServerConfig   `yaml:"server"`
	Mesh      MeshConfig     `yaml:"mesh"`
	Engine    EngineConfig   `yaml:"engine"`
	Log       LogConfig      `yaml:"log"`
}

type WorldConfig struct {
	HalfExtent float64 `yaml:"half_extent"`
	MaxDepth   int     `yaml:"max_depth"`
	// ColorSeed makes piece colors reproducible; zero picks a random seed.
	ColorSeed uint64 `yaml:"color_seed"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`
	Port          int    `yaml:"port"`
}

type MeshConfig struct {
	// Kernel is "exact" or "sdfx".
	Kernel         string `yaml:"kernel"`
	Cells          int    `yaml:"cells"`
	HighlightRoots bool   `yaml:"highlight_roots"`
}

type EngineConfig struct {
	Timeout string `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Mesh kernels.
const (
	KernelExact = "exact"
	KernelSdfx  = "sdfx"
)

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.World.HalfExtent <= 0 {
		return fmt.Errorf("world.half_extent must be positive")
	}
	if c.World.MaxDepth < 0 || c.World.MaxDepth > 16 {
		return fmt.Errorf("world.max_depth must be between 0 and 16")
	}
	if err := c.Tolerance.Validate(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case store.KindMemory:
	case store.KindDir, store.KindSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, dir or sqlite")
	}

	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = "127.0.0.1"
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Mesh.Kernel {
	case KernelExact, KernelSdfx:
	default:
		return fmt.Errorf("mesh.kernel must be either 'exact' or 'sdfx'")
	}
	if c.Mesh.Cells <= 0 {
		return fmt.Errorf("mesh.cells must be positive")
	}

	if c.Engine.Timeout == "" {
		c.Engine.Timeout = "5s"
	}
	if d, err := time.ParseDuration(c.Engine.Timeout); err != nil {
		return fmt.Errorf("engine.timeout invalid: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be either 'text' or 'json'")
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenAddress, s.Port)
}

// TimeoutDuration returns the parsed script timeout. Call after Validate.
func (e EngineConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(e.Timeout)
	return d
}

// WorldOptions returns the world options the configuration describes.
func (c *Config) WorldOptions(logger *slog.Logger) []world.Option {
	opts := []world.Option{
		world.WithHalfExtent(c.World.HalfExtent),
		world.WithMaxDepth(c.World.MaxDepth),
		world.WithTolerance(c.Tolerance),
	}
	if logger != nil {
		opts = append(opts, world.WithLogger(logger))
	}
	if c.World.ColorSeed != 0 {
		opts = append(opts, world.WithColorSeed(c.World.ColorSeed))
	}
	return opts
}

// OpenStore opens the configured store backend.
func (c *Config) OpenStore() (store.Store, error) {
	return store.Open(c.Store.Backend, c.Store.Path)
}

// NewLogger builds a slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level %q is not one of debug, info, warn or error", s)
	}
}
