package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeConfig(t *testing.T) {
	raw := RawConfig{
		Common: CommonConfig{
			Database: DatabaseConfig{URL: "postgres://common/db", MaxOpenConns: 5},
			Logging:  LoggingConfig{Level: "warn"},
		},
		Backend: BackendConfig{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{URL: "sqlite:///tmp/backend.db"},
			Logging:  LoggingConfig{FilePath: "/tmp/weaverd.log"},
		},
	}

	cfg := mergeConfig(raw)
	require.Equal(t, "sqlite:///tmp/backend.db", cfg.Database.URL)
	require.Equal(t, 5, cfg.Database.MaxOpenConns)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, "/tmp/weaverd.log", cfg.Logging.FilePath)
	require.Equal(t, "8080", cfg.Server.Port)
}

func TestApplyEnvAndDefaults(t *testing.T) {
	env := map[string]string{
		EnvJWTSecret:     "s3cret",
		EnvAdminEmail:    "root@example.com",
		EnvAdminPassword: "pw",
		EnvPort:          "9000",
	}
	var cfg Config
	applyEnv(&cfg, func(k string) string { return env[k] })
	applyDefaults(&cfg)

	require.Equal(t, "s3cret", cfg.JWT.Secret)
	require.Equal(t, "root@example.com", cfg.Admin.Email)
	require.Equal(t, "0.0.0.0:9000", cfg.Addr())
	require.Equal(t, "weaver", cfg.JWT.Issuer)
	require.Equal(t, 24, cfg.JWT.ExpiryHours)
	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, strings.HasPrefix(cfg.Database.URL, "sqlite://"))
	require.Contains(t, cfg.CORS.AllowedHeaders, "Authorization")
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvAdminEmail, "")
	path := filepath.Join(t.TempDir(), "weaverd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
common:
  database:
    url: sqlite:///tmp/common.db
backend:
  server:
    host: 127.0.0.1
    port: "4000"
  cors:
    allowed-origins: ["http://localhost:5173"]
  admin:
    email: admin@example.com
    password: changeme
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:4000", cfg.Addr())
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "admin@example.com", cfg.Admin.Email)
	require.Same(t, cfg, GetConfig())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{Admin: AdminConfig{Email: "admin@example.com"}}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "admin.password")
}
