package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	opts, err := Parse([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Address)
	assert.Equal(t, DefaultSecretKey, opts.SecretKey)
	assert.Equal(t, "/register/confirm/", opts.ConfirmationPath)
	assert.Equal(t, time.Hour, opts.CleanupInterval)
	assert.False(t, opts.Production)
}

func TestParse_FileThenFlagsThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		"address": "file:1",
		"database_dsn": "postgres://file",
		"frontend_address": "https://file.example",
		"smtp_port": 2525
	}`)
	t.Setenv("DATABASE_URL", "postgres://env")

	opts, err := Parse([]string{"--config", path, "-a", "flag:2", "--cleanup-interval", "5m"})
	require.NoError(t, err)

	assert.Equal(t, "flag:2", opts.Address, "flag overrides file")
	assert.Equal(t, "postgres://env", opts.DatabaseDSN, "env overrides file")
	assert.Equal(t, "https://file.example", opts.FrontendAddress)
	assert.Equal(t, 2525, opts.SMTPPort)
	assert.Equal(t, 5*time.Minute, opts.CleanupInterval)
	assert.Equal(t, path, opts.Config)
}

func TestParse_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, `{"log_level": "debug"}`)
	t.Setenv("CONFIG", path)

	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestParse_Errors(t *testing.T) {
	t.Run("bad json", func(t *testing.T) {
		path := writeConfig(t, `{not json`)
		_, err := Parse([]string{"-c", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error while parsing config file")
	})
	t.Run("unknown flag", func(t *testing.T) {
		_, err := Parse([]string{"--nope"})
		require.Error(t, err)
	})
	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("REDIS_DB", "zero")
		_, err := Parse([]string{"-c", ""})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_DB")
	})
	t.Run("bad env bool", func(t *testing.T) {
		t.Setenv("PRODUCTION", "maybe")
		_, err := Parse([]string{"-c", ""})
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Options {
		o := Defaults()
		o.DatabaseDSN = "postgres://x"
		return o
	}

	assert.NoError(t, base().Validate())

	o := base()
	o.DatabaseDSN = ""
	assert.Error(t, o.Validate())

	o = base()
	o.SecretKey = "short"
	assert.Error(t, o.Validate())

	o = base()
	o.Production = true
	assert.EqualError(t, o.Validate(), "default secret key is not allowed in production")

	o.SecretKey = "a-very-long-production-secret-of-40-bytes!"
	assert.NoError(t, o.Validate())
}

func TestConfirmationURL(t *testing.T) {
	o := Defaults()
	o.FrontendAddress = "https://notes.example"
	assert.Equal(t, "https://notes.example/register/confirm/abc", o.ConfirmationURL("abc"))
}
