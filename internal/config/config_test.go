package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-blog-auth/internal/config"
	"github.com/stretchr/testify/require"
)

const testPrefix = "BLOGAUTH_TEST_"

func TestNew_Defaults(t *testing.T) {
	c, err := config.New(config.WithEnvPrefix(testPrefix))
	require.NoError(t, err)

	require.Equal(t, "http://localhost:8000/api", c.GetBaseURL())
	require.Equal(t, 10*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.CredentialStoreFile, c.GetCredentialStore())
	require.Equal(t, "default", c.GetCredentialProfile())
	require.Equal(t, 7*24*time.Hour, c.GetCredentialTTL())
	require.Equal(t, "127.0.0.1:8765", c.GetRedirectAddr())
	require.Equal(t, "info", c.GetLogLevel())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "credential.json", filepath.Base(c.GetCredentialPath()))
}

func TestNew_Priority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blogauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://file.example/api/
  timeout: 3s
credential:
  store: redis
  redis_addr: file:6379
log:
  level: DEBUG
`), 0o600))

	t.Setenv(testPrefix+"CREDENTIAL_REDIS_ADDR", "env:6379")
	t.Setenv(testPrefix+"APP_NAME", "From Env")
	t.Setenv(testPrefix+"LOG_PRETTY", "true")

	c, err := config.New(
		config.WithEnvPrefix(testPrefix),
		config.WithFile(path),
		config.WithOverrides(map[string]any{
			"credential.store": "memory",
			"backend.base_url": "",
		}),
	)
	require.NoError(t, err)

	require.Equal(t, "http://file.example/api", c.GetBaseURL(), "empty override is ignored, trailing slash trimmed")
	require.Equal(t, 3*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.CredentialStoreMemory, c.GetCredentialStore(), "override beats file")
	require.Equal(t, "env:6379", c.GetRedisAddr(), "env beats file")
	require.Equal(t, "From Env", c.GetAppName())
	require.Equal(t, "debug", c.GetLogLevel())
	require.True(t, c.GetLogPretty())
}

func TestNew_MissingFile(t *testing.T) {
	_, err := config.New(config.WithEnvPrefix(testPrefix), config.WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	c := config.Default()
	require.Equal(t, "Blog Auth", c.GetAppName())
	require.Equal(t, ":8000", c.GetFakeBackendAddr())
}
