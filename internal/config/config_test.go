package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "geolake_meta.sqlite", cfg.MetaDBPath)
	assert.Equal(t, 4, cfg.MetaReadPool)
	assert.Equal(t, "geolake.duckdb", cfg.DataDBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "0 * * * *", cfg.SizeLogSchedule)
	assert.NotEmpty(t, cfg.Warnings) // missing JWT secret is warned about
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9000\"\nlog_level: debug\nrate_limit_rps: 5\n"), 0o600))

	t.Setenv("LISTEN_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr) // env wins
	assert.Equal(t, "debug", cfg.LogLevel)   // file survives where env is unset
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
}

func TestLoadCORSFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadProductionRejectsInsecureDefaults(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{level: "debug", want: "DEBUG"},
		{level: "info", want: "INFO"},
		{level: "warn", want: "WARN"},
		{level: "warning", want: "WARN"},
		{level: "error", want: "ERROR"},
		{level: "bogus", want: "INFO"},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel().String(), tt.level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\nFOO_FROM_DOTENV=bar\nQUOTED_FROM_DOTENV=\"hello world\"\n"), 0o600))

	t.Setenv("FOO_FROM_DOTENV", "") // ensure cleanup via t.Setenv
	t.Setenv("QUOTED_FROM_DOTENV", "")
	os.Unsetenv("FOO_FROM_DOTENV")
	os.Unsetenv("QUOTED_FROM_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "bar", os.Getenv("FOO_FROM_DOTENV"))
	assert.Equal(t, "hello world", os.Getenv("QUOTED_FROM_DOTENV"))

	// Missing file is not an error.
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
