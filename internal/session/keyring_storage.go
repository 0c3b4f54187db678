package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	// DefaultKeyringService is the service name under which the session is stored.
	DefaultKeyringService = "ems"

	keyringUser = "session"
)

// KeyringStorage keeps the durable session in the operating system keyring
// (macOS Keychain, Secret Service, Windows Credential Manager).
//
// The whole key/value map is stored as one JSON secret. Keyrings offer no
// change notification, so the auth-state watcher relies on its poll when
// this backend is in use.
type KeyringStorage struct {
	mu      sync.Mutex
	service string
}

// NewKeyringStorage creates a KeyringStorage for service.
func NewKeyringStorage(service string) *KeyringStorage {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStorage{service: service}
}

func (k *KeyringStorage) Get(key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (k *KeyringStorage) Set(key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.load()
	if err != nil {
		return err
	}
	data[key] = value
	return k.save(data)
}

func (k *KeyringStorage) Remove(key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return k.save(data)
}

func (k *KeyringStorage) Keys() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(data), nil
}

func (k *KeyringStorage) load() (map[string]string, error) {
	secret, err := keyring.Get(k.service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session from keyring: %w", err)
	}

	data := make(map[string]string)
	if err := json.Unmarshal([]byte(secret), &data); err != nil {
		return nil, fmt.Errorf("failed to parse session from keyring: %w", err)
	}
	return data, nil
}

func (k *KeyringStorage) save(data map[string]string) error {
	if len(data) == 0 {
		if err := keyring.Delete(k.service, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete session from keyring: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := keyring.Set(k.service, keyringUser, string(raw)); err != nil {
		return fmt.Errorf("failed to write session to keyring: %w", err)
	}
	return nil
}
