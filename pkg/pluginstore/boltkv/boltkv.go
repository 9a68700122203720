// Package boltkv implements pluginstore.KV on top of an embedded bbolt
// database, standing in for the original Redis-backed cache so the
// service needs no external dependency to hold plugin secrets. Grounded
// on the teacher's config.go load/save idiom (fmt.Errorf-wrapped I/O
// errors, one bucket per logical namespace).
package boltkv

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("roleguard")

// KV is a bbolt-backed key-value store implementing pluginstore.KV.
type KV struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database at path.
func Open(path string) (*KV, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltkv: failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltkv: failed to create bucket: %w", err)
	}

	return &KV{db: db}, nil
}

// Close releases the underlying database file.
func (k *KV) Close() error {
	return k.db.Close()
}

// Get returns the stored value for key, or (nil, nil) if absent.
func (k *KV) Get(key string) ([]byte, error) {
	var out []byte
	err := k.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltkv: get %q: %w", key, err)
	}
	return out, nil
}

// Set writes value under key, overwriting any existing entry.
func (k *KV) Set(key string, value []byte) error {
	err := k.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("boltkv: set %q: %w", key, err)
	}
	return nil
}

// Del removes key, if present.
func (k *KV) Del(key string) error {
	err := k.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("boltkv: del %q: %w", key, err)
	}
	return nil
}
