package neo4j

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "neo4j://localhost:7687", cfg.URI)
	assert.Equal(t, 100, cfg.MaxConnectionPoolSize)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"uri: neo4j://db.internal:7687\n"+
			"username: svc\n"+
			"database: crm\n"+
			"max_connection_pool_size: 20\n"+
			"connection_timeout: 2s\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j://db.internal:7687", cfg.URI)
	assert.Equal(t, "svc", cfg.Username)
	assert.Equal(t, "crm", cfg.Database)
	assert.Equal(t, 20, cfg.MaxConnectionPoolSize)
	assert.Equal(t, 2*time.Second, cfg.ConnectionTimeout)
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"uri: neo4j://db.internal:7687\nusername: file-user\n"), 0o600))

	t.Setenv("NODUS_NEO4J_USERNAME", "env-user")
	t.Setenv("NODUS_NEO4J_PASSWORD", "env-secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j://db.internal:7687", cfg.URI, "file value survives without an override")
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-secret", cfg.Password)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("NODUS_NEO4J_URI", "bolt://override:7687")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://override:7687", cfg.URI)
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsEmptyURI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URI = ""
	require.Error(t, cfg.Validate())
}
