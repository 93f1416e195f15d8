package config

import "time"

const (
	CredentialStoreFile   = "file"
	CredentialStoreMemory = "memory"
	CredentialStoreRedis  = "redis"
)

type CredentialConfig interface {
	GetCredentialStore() string
	GetCredentialPath() string
	GetCredentialPassphrase() string
	GetCredentialProfile() string
	GetCredentialTTL() time.Duration
	GetRedisAddr() string
	GetRedisPrefix() string
}

// Credential selects where the persisted bearer token lives.
type Credential struct {
	Store       string        `koanf:"store"`
	Path        string        `koanf:"path"`
	Passphrase  string        `koanf:"passphrase"`
	Profile     string        `koanf:"profile"`
	TTL         time.Duration `koanf:"ttl"`
	RedisAddr   string        `koanf:"redis_addr"`
	RedisPrefix string        `koanf:"redis_prefix"`
}

var _ CredentialConfig = Credential{}

func (c Credential) GetCredentialStore() string {
	if c.Store == "" {
		return CredentialStoreFile
	}
	return c.Store
}

func (c Credential) GetCredentialPath() string {
	return c.Path
}

// GetCredentialPassphrase seals the file store when set; the token is stored in the clear otherwise.
func (c Credential) GetCredentialPassphrase() string {
	return c.Passphrase
}

func (c Credential) GetCredentialProfile() string {
	if c.Profile == "" {
		return "default"
	}
	return c.Profile
}

// GetCredentialTTL matches the backend's refresh token lifetime
func (c Credential) GetCredentialTTL() time.Duration {
	if c.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.TTL
}

func (c Credential) GetRedisAddr() string {
	if c.RedisAddr == "" {
		return "localhost:6379"
	}
	return c.RedisAddr
}

func (c Credential) GetRedisPrefix() string {
	if c.RedisPrefix == "" {
		return "blogauth:credential"
	}
	return c.RedisPrefix
}
