package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/zalando/go-keyring"
)

// ErrNotFound is returned by a Store that works but holds no identity yet.
var ErrNotFound = errors.New(config.ErrIdentityMissing)

// Store persists the client identity string.
// Load returns ErrNotFound when nothing has been saved; any other error means
// the store itself is unavailable.
type Store interface {
	Load() (string, error)
	Save(id string) error
}

// KeyringStore keeps the identity in the OS secret service.
type KeyringStore struct {
	Service string
	User    string
}

// NewKeyringStore returns a KeyringStore using the app's service name.
func NewKeyringStore() KeyringStore {
	return KeyringStore{Service: config.KeyringService, User: config.KeyringUser}
}

// Load implements Store.
func (s KeyringStore) Load() (string, error) {
	v, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}
	if strings.TrimSpace(v) == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Save implements Store.
func (s KeyringStore) Save(id string) error {
	if err := keyring.Set(s.Service, s.User, id); err != nil {
		return fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}
	return nil
}

// FileStore keeps the identity in a small JSON document on disk.
type FileStore struct {
	Path string
}

type identityFile struct {
	Identity string `json:"identity"`
}

// NewFileStore returns a FileStore in the app config directory.
func NewFileStore() (FileStore, error) {
	dir, err := config.AppConfigDir()
	if err != nil {
		return FileStore{}, err
	}
	return FileStore{Path: filepath.Join(dir, config.IdentityFileName)}, nil
}

// Load implements Store.
func (s FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}

	var f identityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrIdentityCorrupt, err)
	}
	if strings.TrimSpace(f.Identity) == "" {
		return "", ErrNotFound
	}
	return f.Identity, nil
}

// Save implements Store. The file is replaced atomically.
func (s FileStore) Save(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), config.DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	data, err := json.Marshal(identityFile{Identity: id})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}

	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, config.FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}
	return nil
}

type fallbackStore struct {
	primary   Store
	secondary Store
}

// Fallback returns a Store that prefers primary and uses secondary only when
// primary is unavailable. An empty primary is still consulted against
// secondary so an identity saved during an earlier outage is not lost.
func Fallback(primary, secondary Store) Store {
	return &fallbackStore{primary: primary, secondary: secondary}
}

func (f *fallbackStore) Load() (string, error) {
	id, err := f.primary.Load()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		slog.Warn(config.MsgIdentityFallback,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyError, err)
	}
	return f.secondary.Load()
}

func (f *fallbackStore) Save(id string) error {
	err := f.primary.Save(id)
	if err == nil {
		return nil
	}
	slog.Warn(config.MsgIdentityFallback,
		config.LogKeyComponent, config.CompIdentity,
		config.LogKeyError, err)
	return f.secondary.Save(id)
}
