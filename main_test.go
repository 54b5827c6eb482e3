package main

import (
	"testing"

	"motion-monitor/be/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_RefusesDevelopmentSecretInRelease(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "release")
	cfg := config.Load()

	err := run(cfg, zap.NewNop())

	assert.ErrorIs(t, err, config.ErrDefaultJWTSecret)
}

func TestRun_ReturnsDatabaseFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("HISTORY_ENABLED", "true")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "1")
	cfg := config.Load()

	err := run(cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize database")
}
