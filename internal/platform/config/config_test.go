package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	t.Setenv("MES_BASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Parse([]byte("mode: release\n"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, 30*time.Second, cfg.Upstream.ExportTimeout)
	require.Equal(t, "*/10 * * * *", cfg.Sweep.Cron)
	require.Equal(t, 3306, cfg.DB.Port)
	require.True(t, cfg.MockMode())
	require.False(t, cfg.DB.Enabled())
	require.False(t, cfg.Auth.Enabled())
}

func TestParseFull(t *testing.T) {
	t.Setenv("MES_BASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	buf := []byte(`
mode: dev
server:
  addr: ":9090"
upstream:
  base_url: "http://mes.local/api/"
  timeout: 5s
database:
  host: db
  dbname: kcms
auth:
  jwt_secret: s3cret
  accounts:
    - id: E1001
      password_hash: "$2a$10$xxxxxxxxxxxxxxxxxxxxxx"
      role: operator
redis:
  addr: "localhost:6379"
  limit: 5
`)
	cfg, err := Parse(buf)
	require.NoError(t, err)
	require.Equal(t, "http://mes.local/api", cfg.Upstream.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	require.False(t, cfg.MockMode())
	require.True(t, cfg.DB.Enabled())
	require.True(t, cfg.Auth.Enabled())
	require.Len(t, cfg.Auth.Accounts, 1)
	require.Equal(t, "operator", cfg.Auth.Accounts[0].Role)
	require.Equal(t, 5, cfg.Redis.Limit)
	require.Equal(t, time.Minute, cfg.Redis.Window)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MES_BASE_URL", "http://override/")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Parse([]byte("upstream:\n  base_url: http://file\n"))
	require.NoError(t, err)
	require.Equal(t, "http://override", cfg.Upstream.BaseURL)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte("mode: staging\n"))
	require.Error(t, err)

	_, err = Parse([]byte("certificate:\n  cert: a.pem\n"))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: dev\nlog:\n  level: debug\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
}
