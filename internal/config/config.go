// Package config loads the optional vudoc.toml project file and the
// VUDOC_SEED/sandbox environment overrides that internal/compiler and
// cmd/vudoc thread into internal/wasm.Config and internal/runtime/host.
// Precedence mirrors the teacher's loadEffEnv: an environment variable
// always overrides the TOML file's value, the file overrides the built-in
// default.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/vudoc/vudoc/internal/runtime/clockrand"
)

// fileConfig is the shape of vudoc.toml; every field is optional, so the
// zero-value file (or no file at all) yields the spec's own defaults.
type fileConfig struct {
	Memory struct {
		InitialPages uint32 `toml:"initial_pages"`
		MaxPages     uint32 `toml:"max_pages"`
		HeapCapacity int32  `toml:"heap_capacity"`
	} `toml:"memory"`
	Runtime struct {
		PoolSize int `toml:"pool_size"`
	} `toml:"runtime"`
	Sandbox struct {
		Root string `toml:"root"`
	} `toml:"sandbox"`
}

// Config is the fully resolved configuration, after TOML and environment
// layering, ready to feed internal/wasm.Config and
// internal/runtime/host.Config.
type Config struct {
	InitialPages  uint32
	MaxPages      uint32
	HasMaxPages   bool
	HeapCapacity  int32
	PoolSize      int
	SandboxRoot   string
	Seed          int64
	Deterministic bool
}

// defaults matches §3.6's one initial growable page and §4.7's runtime
// defaults. Config carries no stack-size setting.
func defaults() Config {
	return Config{
		InitialPages: 1,
		HeapCapacity: 16 << 20,
		PoolSize:     32,
	}
}

// Load reads path (if it exists; a missing file is not an error, only the
// defaults plus environment apply) and layers VUDOC_SEED /
// VUDOC_FS_SANDBOX on top.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var fc fileConfig
			if _, err := toml.DecodeFile(path, &fc); err != nil {
				return Config{}, err
			}
			applyFile(&cfg, fc)
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.Memory.InitialPages > 0 {
		cfg.InitialPages = fc.Memory.InitialPages
	}
	if fc.Memory.MaxPages > 0 {
		cfg.MaxPages = fc.Memory.MaxPages
		cfg.HasMaxPages = true
	}
	if fc.Memory.HeapCapacity > 0 {
		cfg.HeapCapacity = fc.Memory.HeapCapacity
	}
	if fc.Runtime.PoolSize > 0 {
		cfg.PoolSize = fc.Runtime.PoolSize
	}
	if fc.Sandbox.Root != "" {
		cfg.SandboxRoot = fc.Sandbox.Root
	}
}

const sandboxEnvVar = "VUDOC_FS_SANDBOX"

func applyEnv(cfg *Config) {
	if seed, ok := clockrand.LoadSeed(); ok {
		cfg.Seed = seed
		cfg.Deterministic = true
	}
	if root := os.Getenv(sandboxEnvVar); root != "" {
		cfg.SandboxRoot = root
	}
}
