// ABOUTME: On-disk cache for PNCP API responses
// ABOUTME: Keeps repeated import runs off the network for already-fetched windows
package pncp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Cache stores JSON-encoded API responses keyed by query, with a TTL so
// stale publication windows eventually refresh.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) the cache directory.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get decodes a cached entry into out. The bool reports whether the key
// was present.
func (c *Cache) Get(key string, out any) (bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value under the key. A zero TTL means the entry never
// expires.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes a cached entry. Missing keys are not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
