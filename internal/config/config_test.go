package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8484", cfg.ListenAddr)
	assert.Equal(t, "engram.db", cfg.DBPath)
	assert.Equal(t, "repos", cfg.ReposDir)
	assert.False(t, cfg.SyncOnStart)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\ndb_path: /var/lib/engram/engram.db\n"), 0o644))

	cfg, err := LoadFromArgs([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/engram/engram.db", cfg.DBPath)
	// Values absent from the file keep their defaults.
	assert.Equal(t, "repos", cfg.ReposDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENGRAM_DB_PATH", "/tmp/env.db")
	t.Setenv("ENGRAM_SYNC_ON_START", "true")

	cfg, err := LoadFromArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.True(t, cfg.SyncOnStart)
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /from/file.db\n"), 0o644))
	t.Setenv("ENGRAM_DB_PATH", "/from/env.db")

	cfg, err := LoadFromArgs([]string{"--config", path, "--db_path", "/from/flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DBPath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /from/file.db\n"), 0o644))
	t.Setenv("ENGRAM_DB_PATH", "/from/env.db")

	cfg, err := LoadFromArgs([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.DBPath)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := LoadFromArgs([]string{"--config", "/no/such/file.yaml"})
	assert.Error(t, err)
}

func TestInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engram.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \"\"\n"), 0o644))

	_, err := LoadFromArgs([]string{"--config", path})
	assert.Error(t, err)
}
