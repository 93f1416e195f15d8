package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. BLOGAUTH_BACKEND_BASE_URL.
const EnvPrefix = "BLOGAUTH_"

var sections = map[string]struct{}{
	"log":         {},
	"backend":     {},
	"oauth":       {},
	"credential":  {},
	"fakebackend": {},
}

type loadOptions struct {
	filePath  string
	overrides map[string]any
	envPrefix string
}

type Option func(*loadOptions)

// WithFile merges a YAML file over the defaults. A missing file is an error.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.filePath = path
	}
}

// WithOverrides applies values with the highest priority (CLI flags). Empty strings are skipped.
func WithOverrides(values map[string]any) Option {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// WithEnvPrefix replaces EnvPrefix (used by tests to isolate from the process environment).
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// New loads configuration with priority: overrides > env > file > defaults.
func New(options ...Option) (Config, error) {
	opts := loadOptions{envPrefix: EnvPrefix}
	for _, opt := range options {
		opt(&opts)
	}

	k := koanf.New(".")
	if err := k.Load(mapProvider(toMap(defaultValues())), nil); err != nil {
		return nil, fmt.Errorf("[config.New] load defaults: %w", err)
	}

	if opts.filePath != "" {
		if err := k.Load(file.Provider(opts.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("[config.New] load file %s: %w", opts.filePath, err)
		}
	}

	prefix := opts.envPrefix
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return envKey(prefix, s)
	}), nil); err != nil {
		return nil, fmt.Errorf("[config.New] load env: %w", err)
	}

	if overrides := nonEmpty(opts.overrides); len(overrides) > 0 {
		if err := k.Load(mapProvider(overrides), nil); err != nil {
			return nil, fmt.Errorf("[config.New] load overrides: %w", err)
		}
	}

	var v Values
	if err := k.Unmarshal("", &v); err != nil {
		return nil, fmt.Errorf("[config.New] unmarshal: %w", err)
	}
	return fromValues(v), nil
}

// envKey maps BLOGAUTH_CREDENTIAL_REDIS_ADDR to credential.redis_addr and BLOGAUTH_APP_NAME to app_name.
func envKey(prefix, s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, prefix))
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	if _, ok := sections[section]; ok {
		return section + "." + rest
	}
	return s
}

func defaultValues() Values {
	return Values{
		AppName: "Blog Auth",
		Env:     "DEV",
		Log:     EnvVars{Level: "info"},
		Backend: Backend{
			BaseURL: "http://localhost:8000/api",
		},
		OAuth: OAuth{RedirectAddr: "127.0.0.1:8765"},
		Credential: Credential{
			Store:       CredentialStoreFile,
			Path:        defaultCredentialPath(),
			Profile:     "default",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "blogauth:credential",
		},
		FakeBackend: FakeBackend{Addr: ":8000"},
	}
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "blogauth", "credential.json")
}

// toMap flattens the defaults into koanf's dotted keys; durations are left at zero so the getters apply theirs.
func toMap(v Values) map[string]any {
	return map[string]any{
		"app_name":                v.AppName,
		"env":                     v.Env,
		"log.level":               v.Log.Level,
		"log.pretty":              v.Log.Pretty,
		"backend.base_url":        v.Backend.BaseURL,
		"oauth.redirect_addr":     v.OAuth.RedirectAddr,
		"credential.store":        v.Credential.Store,
		"credential.path":         v.Credential.Path,
		"credential.profile":      v.Credential.Profile,
		"credential.redis_addr":   v.Credential.RedisAddr,
		"credential.redis_prefix": v.Credential.RedisPrefix,
		"fakebackend.addr":        v.FakeBackend.Addr,
	}
}

func nonEmpty(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		if value == nil {
			continue
		}
		out[key] = value
	}
	return out
}

var errReadBytesNotSupported = errors.New("config: ReadBytes not supported by map provider")

// mapProvider is a koanf provider over a dotted-key map.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return unflatten(m), nil
}

func unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return out
}
