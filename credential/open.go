package credential

import (
	"fmt"

	"github.com/jrsteele09/go-blog-auth/internal/config"
	"github.com/redis/go-redis/v9"
)

// Open builds the store selected by cfg. The returned close function releases
// any connection the store holds and is never nil.
func Open(cfg config.CredentialConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetCredentialStore() {
	case config.CredentialStoreMemory:
		return NewMemoryStore(), noop, nil
	case config.CredentialStoreFile:
		if cfg.GetCredentialPath() == "" {
			return nil, noop, fmt.Errorf("[credential.Open] file store requires a path")
		}
		return NewFileStore(cfg.GetCredentialPath(), cfg.GetCredentialPassphrase()), noop, nil
	case config.CredentialStoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		store := NewRedisStore(client, cfg.GetRedisPrefix(), cfg.GetCredentialProfile(), cfg.GetCredentialTTL())
		return store, client.Close, nil
	}
	return nil, noop, fmt.Errorf("[credential.Open] unknown store %q", cfg.GetCredentialStore())
}
