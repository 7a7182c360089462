package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// Named credential values.
const (
	KeyStoreURL  = "MONGO_URI"
	KeyStoreKey  = "MONGO_ACCESS_KEY"
	KeyAIKey     = "GEMINI_API_KEY"
	keyAILegacy  = "API_KEY"
	keyOverrides = "DIAG_CREDENTIALS_FILE"
)

// Source tells where a resolved value came from.
type Source string

const (
	SourceNone     Source = ""
	SourceEnv      Source = "env"
	SourceOverride Source = "override"
)

// Resolver looks values up in the process environment first and then in a
// persisted dotenv override file. Nothing is cached: every Lookup reads both.
type Resolver struct {
	path   string
	getenv func(string) string
}

// NewResolver returns a resolver backed by the override file at path.
// An empty path selects DefaultOverridePath.
func NewResolver(path string) *Resolver {
	if path == "" {
		path = DefaultOverridePath()
	}
	return &Resolver{path: path, getenv: os.Getenv}
}

// DefaultOverridePath is DIAG_CREDENTIALS_FILE, or credentials.env under the user config dir.
func DefaultOverridePath() string {
	if p := strings.TrimSpace(os.Getenv(keyOverrides)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "equipment-diagnostics", "credentials.env")
}

// Path returns the override file location.
func (r *Resolver) Path() string {
	return r.path
}

// Lookup returns the first non-empty value for key.
func (r *Resolver) Lookup(key string) string {
	v, _ := r.LookupSource(key)
	return v
}

// LookupSource is Lookup that also reports which source supplied the value.
func (r *Resolver) LookupSource(key string) (string, Source) {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v, SourceEnv
	}
	overrides, err := r.overrides()
	if err != nil {
		return "", SourceNone
	}
	if v := strings.TrimSpace(overrides[key]); v != "" {
		return v, SourceOverride
	}
	return "", SourceNone
}

// AIKey resolves the Gemini key, accepting the legacy API_KEY name. Either
// name in the environment beats both names in the override file.
func (r *Resolver) AIKey() string {
	for _, key := range []string{KeyAIKey, keyAILegacy} {
		if v := strings.TrimSpace(r.getenv(key)); v != "" {
			return v
		}
	}
	overrides, err := r.overrides()
	if err != nil {
		return ""
	}
	for _, key := range []string{KeyAIKey, keyAILegacy} {
		if v := strings.TrimSpace(overrides[key]); v != "" {
			return v
		}
	}
	return ""
}

// StoreConfigured reports whether both the store endpoint and key resolve.
func (r *Resolver) StoreConfigured() bool {
	return r.Lookup(KeyStoreURL) != "" && r.Lookup(KeyStoreKey) != ""
}

// SetStoreCredentials persists the store endpoint and key as overrides.
func (r *Resolver) SetStoreCredentials(url, key string) error {
	url, key = strings.TrimSpace(url), strings.TrimSpace(key)
	if url == "" || key == "" {
		return fmt.Errorf("%w: store url and key are required", models.ErrValidation)
	}
	return r.set(map[string]string{KeyStoreURL: url, KeyStoreKey: key})
}

// SetAIKey persists the Gemini key as an override.
func (r *Resolver) SetAIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: ai key is required", models.ErrValidation)
	}
	return r.set(map[string]string{KeyAIKey: key})
}

func (r *Resolver) overrides() (map[string]string, error) {
	values, err := godotenv.Read(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return values, err
}

func (r *Resolver) set(values map[string]string) error {
	current, err := r.overrides()
	if err != nil {
		return fmt.Errorf("read overrides %s: %w", r.path, err)
	}
	for k, v := range values {
		current[k] = v
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	if err := godotenv.Write(current, r.path); err != nil {
		return fmt.Errorf("write overrides %s: %w", r.path, err)
	}
	return os.Chmod(r.path, 0o600)
}
