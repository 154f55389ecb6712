package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"cmd"}, args...)
}

func TestParseFile_JSON(t *testing.T) {
	path := writeConfigFile(t, "conf.json", `{
		"endpoint_addr_http": ":9999",
		"secret_key": "json-secret",
		"access_token_validity_duration": "15m",
		"mail_send_timeout": 5000000000,
		"hide_reset_token": true
	}`)
	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	parseFile(&c)

	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 5*time.Second, c.MailSendTimeout)
	assert.True(t, c.HideResetToken)

	// keys absent from the file keep their previous values
	assert.Equal(t, "HS256", c.SigningAlgorithm)
	assert.Equal(t, 24*time.Hour, c.VerificationTokenValidityDuration)
}

func TestParseFile_YAML(t *testing.T) {
	path := writeConfigFile(t, "conf.yaml", `
database_dsn: postgres://u:p@db:5432/tk
reset_token_validity_duration: 2h
storage_backend: s3
cors_allowed_origins:
  - https://app.example.com
`)
	withArgs(t, "--config", path)

	var c Config
	c.LoadDefaults()
	parseFile(&c)

	assert.Equal(t, "postgres://u:p@db:5432/tk", c.DatabaseDSN)
	assert.Equal(t, 2*time.Hour, c.ResetTokenValidityDuration)
	assert.Equal(t, StorageBackendS3, c.StorageBackend)
	assert.Equal(t, []string{"https://app.example.com"}, c.CORSAllowedOrigins)
	assert.Equal(t, ":8000", c.EndpointAddrHTTP)
}

func TestParseFile_NoFlagLeavesConfig(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	want := c
	parseFile(&c)

	assert.Equal(t, want, c)
}

func TestParseFile_Panics(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "absent.json"))
		var c Config
		require.Panics(t, func() { parseFile(&c) })
	})

	t.Run("malformed json", func(t *testing.T) {
		withArgs(t, "-c", writeConfigFile(t, "bad.json", `{"secret_key":`))
		var c Config
		require.Panics(t, func() { parseFile(&c) })
	})

	t.Run("bad duration", func(t *testing.T) {
		withArgs(t, "-c", writeConfigFile(t, "bad.yml", "mail_send_timeout: soon\n"))
		var c Config
		require.Panics(t, func() { parseFile(&c) })
	})
}
