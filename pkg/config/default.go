package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/world"
	"gopkg.in/yaml.v3"
)

// Default returns a configuration populated with sensible defaults so that
// every command works without any prior configuration.
func Default() Config {
	return Config{
		World: WorldConfig{
			HalfExtent: world.DefaultHalfExtent,
			MaxDepth:   world.DefaultMaxDepth,
		},
		Tolerance: geom.DefaultTolerance(),
		Store: StoreConfig{
			Backend: "dir",
			Path:    "./worlds",
		},
		Server: ServerConfig{
			ListenAddress: "127.0.0.1",
			Port:          8420,
		},
		Mesh: MeshConfig{
			Kernel: KernelExact,
			Cells:  64,
		},
		Engine: EngineConfig{
			Timeout: "5s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to the provided path.
func WriteDefault(path string) error {
	cfg := Default()

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}
