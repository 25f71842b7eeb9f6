package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rl1809/stock-count/internal/core/service"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "HTTP_ADDR", "GRPC_ADDR", "STORAGE", "CLOSE_POLICY", "LOG_LEVEL", "EVENT_WORKERS")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, StorageMySQL, cfg.Storage)
	assert.Equal(t, service.ClosePolicyAdmin, cfg.ClosePolicy)
	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 4, cfg.EventWorkers)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
}

func TestLoad_EnvFile(t *testing.T) {
	unsetEnv(t, "STORAGE", "CLOSE_POLICY")
	t.Setenv("JWT_SECRET", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE=memory\nCLOSE_POLICY=assigned\nJWT_SECRET=from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, service.ClosePolicyAssigned, cfg.ClosePolicy)
	// variables already present in the environment are not overridden
	assert.Equal(t, []byte("from-env"), cfg.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"bad storage":    {"JWT_SECRET": "x", "STORAGE": "postgres"},
		"bad policy":     {"JWT_SECRET": "x", "CLOSE_POLICY": "anyone"},
		"bad int":        {"JWT_SECRET": "x", "EVENT_WORKERS": "many"},
		"zero workers":   {"JWT_SECRET": "x", "EVENT_WORKERS": "0"},
		"bad log level":  {"JWT_SECRET": "x", "LOG_LEVEL": "loud"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
