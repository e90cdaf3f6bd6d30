package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("STOCKTRACE_TEST_KEY", "set-value")

	assert.Equal(t, "set-value", GetEnv("STOCKTRACE_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("STOCKTRACE_TEST_MISSING", "fallback"))
}

func TestRequireEnv_PanicsWhenMissing(t *testing.T) {
	assert.Panics(t, func() {
		RequireEnv("STOCKTRACE_DEFINITELY_NOT_SET")
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("STOCKTRACE_SERVER_ENVIRONMENT", "")
	assert.Equal(t, EnvDevelopment, GetEnvironment())

	t.Setenv("STOCKTRACE_SERVER_ENVIRONMENT", "PRODUCTION")
	assert.Equal(t, EnvProduction, GetEnvironment())
}

func TestEnvironmentChecks(t *testing.T) {
	t.Setenv("STOCKTRACE_SERVER_ENVIRONMENT", "staging")
	assert.False(t, IsDevelopment())
	assert.False(t, IsProduction())
	assert.True(t, IsProductionLike())

	t.Setenv("STOCKTRACE_SERVER_ENVIRONMENT", "development")
	assert.True(t, IsDevelopment())
	assert.False(t, IsProductionLike())
}
