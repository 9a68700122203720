// Package pluginstore is a read-through cache over the key-value backend
// that holds per-plugin-prefix configuration and secrets. It plays the
// role the original RedisCache played (see requirements/db.rs): look the
// key up in an in-memory TTL cache first, fall through to the backend on
// a miss, and drop the cache entry whenever its value changes.
package pluginstore

import (
	"fmt"
	"sync"
	"time"
)

// KV is the backend a Store reads through. A nil value with a nil error
// means the key is absent; any non-nil error is a backend failure.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Del(key string) error
}

// Kind classifies why a Store operation failed.
type Kind int

const (
	// NotFound means the key is absent from both the cache and the backend.
	NotFound Kind = iota
	// BackendError means the backend itself returned an error.
	BackendError
)

func (k Kind) String() string {
	if k == NotFound {
		return "not_found"
	}
	return "backend_error"
}

// Error reports a Store failure against a specific key.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pluginstore: key %q: %s: %v", e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("pluginstore: key %q: %s", e.Key, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a TTL-cached read-through wrapper over a KV backend.
type Store struct {
	backend KV
	ttl     time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New wraps backend with an in-memory cache holding entries for ttl.
func New(backend KV, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
	}
}

func pluginKey(prefix uint64) string { return fmt.Sprintf("plugin_%d", prefix) }
func secretKey(prefix uint64) string { return fmt.Sprintf("secret_%d", prefix) }

// GetPlugin returns the stored plugin-configuration blob for prefix.
func (s *Store) GetPlugin(prefix uint64) ([]byte, error) { return s.get(pluginKey(prefix)) }

// GetSecret returns the stored secret blob for prefix.
func (s *Store) GetSecret(prefix uint64) ([]byte, error) { return s.get(secretKey(prefix)) }

// PutPlugin stores the plugin-configuration blob for prefix, invalidating
// any cached value.
func (s *Store) PutPlugin(prefix uint64, value []byte) error { return s.put(pluginKey(prefix), value) }

// PutSecret stores the secret blob for prefix, invalidating any cached value.
func (s *Store) PutSecret(prefix uint64, value []byte) error { return s.put(secretKey(prefix), value) }

// DeletePlugin removes a prefix's plugin configuration.
func (s *Store) DeletePlugin(prefix uint64) error { return s.del(pluginKey(prefix)) }

// DeleteSecret removes a prefix's secret blob.
func (s *Store) DeleteSecret(prefix uint64) error { return s.del(secretKey(prefix)) }

func (s *Store) get(key string) ([]byte, error) {
	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.Unlock()
		return entry.value, nil
	}
	s.mu.Unlock()

	value, err := s.backend.Get(key)
	if err != nil {
		return nil, &Error{Kind: BackendError, Key: key, Err: err}
	}
	if value == nil {
		return nil, &Error{Kind: NotFound, Key: key}
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return value, nil
}

func (s *Store) put(key string, value []byte) error {
	if err := s.backend.Set(key, value); err != nil {
		return &Error{Kind: BackendError, Key: key, Err: err}
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) del(key string) error {
	if err := s.backend.Del(key); err != nil {
		return &Error{Kind: BackendError, Key: key, Err: err}
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}
