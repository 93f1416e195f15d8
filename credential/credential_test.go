package credential_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-blog-auth/credential"
	"github.com/jrsteele09/go-blog-auth/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testToken = credential.Token{
	Access:  "access-token",
	Refresh: "refresh-token",
	SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store credential.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, credential.ErrNotFound)

	require.NoError(t, store.Save(ctx, testToken))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, testToken.Access, got.Access)
	require.Equal(t, testToken.Refresh, got.Refresh)
	require.True(t, testToken.SavedAt.Equal(got.SavedAt))

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	require.ErrorIs(t, err, credential.ErrNotFound)

	require.NoError(t, store.Clear(ctx), "clear is idempotent")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, credential.NewMemoryStore())
}

func TestFileStore_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credential.json")
	store := credential.NewFileStore(path, "")
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), testToken))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "access-token")
}

func TestFileStore_Sealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	store := credential.NewFileStore(path, "open sesame")
	exerciseStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testToken))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "access-token")

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := credential.NewFileStore(path, "guess").Load(ctx)
		require.ErrorIs(t, err, credential.ErrUnseal)
	})

	t.Run("no passphrase", func(t *testing.T) {
		_, err := credential.NewFileStore(path, "").Load(ctx)
		require.ErrorIs(t, err, credential.ErrPassphraseRequired)
	})

	t.Run("plain file read with a passphrase", func(t *testing.T) {
		plainPath := filepath.Join(t.TempDir(), "plain.json")
		require.NoError(t, credential.NewFileStore(plainPath, "").Save(ctx, testToken))
		got, err := credential.NewFileStore(plainPath, "open sesame").Load(ctx)
		require.NoError(t, err)
		require.Equal(t, testToken.Access, got.Access)
	})
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := credential.NewFileStore(path, "").Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, credential.ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := credential.NewRedisStore(client, "blogauth:credential", "work", time.Hour)
	require.Equal(t, "blogauth:credential:work", store.Key())
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), testToken))
	require.Equal(t, time.Hour, mr.TTL(store.Key()))

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, credential.ErrNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err = credential.NewRedisStore(client, "p", "default", time.Hour).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, credential.ErrNotFound)
}

func signedAccess(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwtlib.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	return signed
}

func TestExpiresAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	live := signedAccess(t, now.Add(time.Hour))
	exp, ok := credential.ExpiresAt(live)
	require.True(t, ok)
	require.True(t, exp.Equal(now.Add(time.Hour)))
	require.False(t, credential.Expired(live, now))

	dead := signedAccess(t, now.Add(-time.Minute))
	require.True(t, credential.Expired(dead, now))

	_, ok = credential.ExpiresAt("0123456789abcdef")
	require.False(t, ok, "opaque tokens carry no expiry")
	require.False(t, credential.Expired("0123456789abcdef", now))
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, closeFn, err := credential.Open(config.Credential{Store: config.CredentialStoreMemory})
		require.NoError(t, err)
		require.IsType(t, &credential.MemoryStore{}, store)
		require.NoError(t, closeFn())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.json")
		store, _, err := credential.Open(config.Credential{Store: config.CredentialStoreFile, Path: path})
		require.NoError(t, err)
		require.Equal(t, path, store.(*credential.FileStore).Path())
	})

	t.Run("file without path", func(t *testing.T) {
		_, _, err := credential.Open(config.Credential{Store: config.CredentialStoreFile})
		require.Error(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		store, closeFn, err := credential.Open(config.Credential{Store: config.CredentialStoreRedis, RedisAddr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = closeFn() })
		require.Equal(t, "blogauth:credential:default", store.(*credential.RedisStore).Key())
		exerciseStore(t, store)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := credential.Open(config.Credential{Store: "vault"})
		require.Error(t, err)
	})
}
