package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), cfg.InitialPages)
	require.False(t, cfg.HasMaxPages)
}

func TestLoadReadsMemorySettingsFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vudoc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[memory]
initial_pages = 4
max_pages = 16
heap_capacity = 1048576

[runtime]
pool_size = 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint32(4), cfg.InitialPages)
	require.Equal(t, uint32(16), cfg.MaxPages)
	require.True(t, cfg.HasMaxPages)
	require.Equal(t, int32(1048576), cfg.HeapCapacity)
	require.Equal(t, 8, cfg.PoolSize)
}

func TestEnvSeedEnablesDeterministicMode(t *testing.T) {
	t.Setenv("VUDOC_SEED", "99")
	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Deterministic)
	require.Equal(t, int64(99), cfg.Seed)
}

func TestSandboxEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vudoc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[sandbox]
root = "/from/file"
`), 0o644))
	t.Setenv("VUDOC_FS_SANDBOX", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/from/env", cfg.SandboxRoot)
}
