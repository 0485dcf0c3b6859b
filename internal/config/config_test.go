package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yaml"), []byte(body), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig(t *testing.T) {
	writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://localhost/test
auth:
  jwt_secret: file-secret
  token_ttl_minutes: 60
crm:
  active_members_pipeline: "Members"
  active_stage: "Enrolled"
`)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMin)
	assert.Equal(t, "Members", cfg.CRM.ActiveMembersPipeline)
	assert.Equal(t, "Enrolled", cfg.CRM.ActiveStage)
}

func TestLoadConfigEnvOverridesAndDefaults(t *testing.T) {
	writeConfig(t, `
database:
  url: postgres://localhost/file
`)
	t.Setenv("DATABASE_URL", "postgres://localhost/env")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "7000")

	cfg := LoadConfig()
	assert.Equal(t, "postgres://localhost/env", cfg.Database.DSN)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 7000, cfg.Server.Port)
	// unset enrollment names fall back to the fixed defaults
	assert.Equal(t, "Active Members", cfg.CRM.ActiveMembersPipeline)
	assert.Equal(t, "Active", cfg.CRM.ActiveStage)
}
