package config

import (
	"strings"
	"time"
)

// EnvVars holds the logging section.
type EnvVars struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func (e EnvVars) GetLogLevel() string {
	if e.Level == "" {
		return "info"
	}
	return strings.ToLower(e.Level)
}

func (e EnvVars) GetLogPretty() bool {
	return e.Pretty
}

// Backend locates the REST API all auth requests go to.
type Backend struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

var _ BackendConfig = Backend{}

// GetBaseURL returns the API root without a trailing slash (e.g. "http://localhost:8000/api")
func (b Backend) GetBaseURL() string {
	return strings.TrimRight(b.BaseURL, "/")
}

func (b Backend) GetRequestTimeout() time.Duration {
	if b.Timeout <= 0 {
		return 10 * time.Second
	}
	return b.Timeout
}

// FakeBackend configures cmd/fakebackend.
type FakeBackend struct {
	Addr       string `koanf:"addr"`
	SigningKey string `koanf:"signing_key"`
}
