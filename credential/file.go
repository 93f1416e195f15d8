package credential

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileVersion = 1
	saltLength  = 16

	// argon2id parameters for deriving the sealing key from the passphrase
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrPassphraseRequired = errors.New("credential file is sealed, a passphrase is required")
	ErrUnseal             = errors.New("credential file could not be unsealed")
)

var sealAAD = []byte("blogauth-credential-v1")

var _ Store = (*FileStore)(nil)

// FileStore keeps the credential in a single 0600 file. With a passphrase the
// token is sealed with XChaCha20-Poly1305 under an argon2id-derived key.
type FileStore struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

type fileEnvelope struct {
	Version int    `json:"version"`
	Token   *Token `json:"token,omitempty"`
	Salt    []byte `json:"salt,omitempty"`
	Nonce   []byte `json:"nonce,omitempty"`
	Sealed  []byte `json:"sealed,omitempty"`
}

func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: []byte(passphrase)}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(_ context.Context) (Token, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Token{}, ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("[FileStore.Load] read %s: %w", f.path, err)
	}

	var envelope fileEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Token{}, fmt.Errorf("[FileStore.Load] decode %s: %w", f.path, err)
	}

	token, err := f.open(envelope)
	if err != nil {
		return Token{}, err
	}
	if token.Empty() {
		return Token{}, ErrNotFound
	}
	return token, nil
}

func (f *FileStore) Save(_ context.Context, token Token) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	envelope, err := f.seal(token)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("[FileStore.Save] encode: %w", err)
	}
	return writeFileAtomic(f.path, data)
}

func (f *FileStore) Clear(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[FileStore.Clear] remove %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) seal(token Token) (fileEnvelope, error) {
	if len(f.passphrase) == 0 {
		return fileEnvelope{Version: fileVersion, Token: &token}, nil
	}

	plaintext, err := json.Marshal(token)
	if err != nil {
		return fileEnvelope{}, fmt.Errorf("[FileStore.seal] encode: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fileEnvelope{}, fmt.Errorf("[FileStore.seal] salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(f.key(salt))
	if err != nil {
		return fileEnvelope{}, fmt.Errorf("[FileStore.seal] cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fileEnvelope{}, fmt.Errorf("[FileStore.seal] nonce: %w", err)
	}

	return fileEnvelope{
		Version: fileVersion,
		Salt:    salt,
		Nonce:   nonce,
		Sealed:  aead.Seal(nil, nonce, plaintext, sealAAD),
	}, nil
}

func (f *FileStore) open(envelope fileEnvelope) (Token, error) {
	if envelope.Sealed == nil {
		if envelope.Token == nil {
			return Token{}, nil
		}
		return *envelope.Token, nil
	}
	if len(f.passphrase) == 0 {
		return Token{}, ErrPassphraseRequired
	}

	aead, err := chacha20poly1305.NewX(f.key(envelope.Salt))
	if err != nil {
		return Token{}, fmt.Errorf("[FileStore.open] cipher: %w", err)
	}
	if len(envelope.Nonce) != aead.NonceSize() {
		return Token{}, ErrUnseal
	}
	plaintext, err := aead.Open(nil, envelope.Nonce, envelope.Sealed, sealAAD)
	if err != nil {
		return Token{}, ErrUnseal
	}

	var token Token
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return Token{}, fmt.Errorf("[FileStore.open] decode: %w", err)
	}
	return token, nil
}

func (f *FileStore) key(salt []byte) []byte {
	return argon2.IDKey(f.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[writeFileAtomic] mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("[writeFileAtomic] temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[writeFileAtomic] write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[writeFileAtomic] chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[writeFileAtomic] close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("[writeFileAtomic] rename: %w", err)
	}
	return nil
}
