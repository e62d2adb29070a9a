package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseExpiry(t *testing.T) {
	cases := map[string]time.Duration{
		"15m": 15 * time.Minute,
		"1h":  time.Hour,
		"1d":  24 * time.Hour,
		"10d": 240 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseExpiry(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "0d", "-5m", "xd"} {
		_, err := ParseExpiry(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"ACCESS_TOKEN_SECRET":  "a",
		"REFRESH_TOKEN_SECRET": "r",
		"SERVER_URL":           "http://api.example.com/",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 15*time.Minute, cfg.Tokens.AccessExpiry)
	assert.Equal(t, 10*24*time.Hour, cfg.Tokens.RefreshExpiry)
	assert.Equal(t, "http://api.example.com", cfg.ServerURL)
	assert.False(t, cfg.CookieSecure)
	assert.EqualValues(t, 10<<20, cfg.MaxBodyBytes)
}

func TestFromEnvRejectsBadBodyLimit(t *testing.T) {
	for _, bad := range []string{"0", "-1", "ten"} {
		_, err := FromEnv(envMap(map[string]string{
			"ACCESS_TOKEN_SECRET":  "a",
			"REFRESH_TOKEN_SECRET": "r",
			"MAX_BODY_BYTES":       bad,
		}))
		assert.ErrorContains(t, err, "MAX_BODY_BYTES", bad)
	}
}

func TestFromEnvRequiresSecrets(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")

	_, err = FromEnv(envMap(map[string]string{
		"ACCESS_TOKEN_SECRET":  "same",
		"REFRESH_TOKEN_SECRET": "same",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestFromEnvRejectsUnknownStore(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"ACCESS_TOKEN_SECRET":  "a",
		"REFRESH_TOKEN_SECRET": "r",
		"STORE_DRIVER":         "postgres",
	}))
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("ACCESS_TOKEN_SECRET=file-access\nREFRESH_TOKEN_SECRET=file-refresh\nPORT=9100\n"), 0o600))

	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("PORT", "")
	require.NoError(t, os.Unsetenv("ACCESS_TOKEN_SECRET"))
	require.NoError(t, os.Unsetenv("REFRESH_TOKEN_SECRET"))
	require.NoError(t, os.Unsetenv("PORT"))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "file-access", cfg.Tokens.AccessSecret)
	assert.Equal(t, "9100", cfg.Port)
}

func TestLoadMissingEnvFileFallsBackToEnvironment(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "env-access")
	t.Setenv("REFRESH_TOKEN_SECRET", "env-refresh")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.Tokens.AccessSecret)
}
