package config

import "time"

type Config interface {
	EnvConfig
	BackendConfig
	OAuthConfig
	CredentialConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogPretty() bool
	GetFakeBackendAddr() string
	GetFakeBackendSigningKey() string
}

type BackendConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

// Values is the decoded configuration tree. Keys are "section.key" so that
// BLOGAUTH_BACKEND_BASE_URL maps onto backend.base_url.
type Values struct {
	AppName     string      `koanf:"app_name"`
	Env         string      `koanf:"env"`
	Log         EnvVars     `koanf:"log"`
	Backend     Backend     `koanf:"backend"`
	OAuth       OAuth       `koanf:"oauth"`
	Credential  Credential  `koanf:"credential"`
	FakeBackend FakeBackend `koanf:"fakebackend"`
}

type mainConfig struct {
	EnvVars
	Backend
	OAuth
	Credential
	fake    FakeBackend
	appName string
	env     string
}

var _ Config = mainConfig{}

func fromValues(v Values) Config {
	return mainConfig{
		EnvVars:    v.Log,
		Backend:    v.Backend,
		OAuth:      v.OAuth,
		Credential: v.Credential,
		fake:       v.FakeBackend,
		appName:    v.AppName,
		env:        v.Env,
	}
}

func (c mainConfig) GetAppName() string {
	return c.appName
}

func (c mainConfig) GetEnv() string {
	if c.env == "" {
		return "DEV"
	}
	return c.env
}

func (c mainConfig) GetFakeBackendAddr() string {
	return c.fake.Addr
}

func (c mainConfig) GetFakeBackendSigningKey() string {
	return c.fake.SigningKey
}

// Default returns the configuration built from defaults only.
func Default() Config {
	return fromValues(defaultValues())
}
