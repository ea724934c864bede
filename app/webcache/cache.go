// Package webcache keeps versioned copies of served responses, so the
// widget stays available when its upstream handler degrades.
package webcache

import (
	"encoding/json"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

// Entry is a cached response, keyed by request URL.
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Cache is a response cache with wholesale invalidation: entries live
// in a bucket named by the version string, and activation drops every
// bucket of any other version.
type Cache struct {
	db      *bolt.DB
	version string
}

// New opens the cache for the given version string.
func New(dir, version string) (*Cache, error) {
	db, err := bolt.Open(path.Join(dir, "webcache.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(version)); err != nil {
			return fmt.Errorf("create version bucket %s: %w", version, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Cache{db: db, version: version}, nil
}

// Version returns the active cache version string.
func (c *Cache) Version() string { return c.version }

// Activate drops every cache bucket that does not match the current
// version. After it returns, Keys contains only the current version.
func (c *Cache) Activate() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		var stale [][]byte

		err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if string(name) != c.version {
				stale = append(stale, append([]byte(nil), name...))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("list buckets: %w", err)
		}

		for _, name := range stale {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("delete stale bucket %s: %w", name, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Keys returns the names of all cache buckets.
func (c *Cache) Keys() ([]string, error) {
	var keys []string

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			keys = append(keys, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}

	return keys, nil
}

// Put stores the response under the exact request URL.
func (c *Cache) Put(url string, e Entry) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(c.version))

		bts, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}

		if err := bkt.Put([]byte(url), bts); err != nil {
			return fmt.Errorf("put entry to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Get returns the cached response for the exact request URL, with
// ok=false when nothing is cached.
func (c *Cache) Get(url string) (e Entry, ok bool, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(c.version))

		bts := bkt.Get([]byte(url))
		if bts == nil {
			return nil
		}

		if err := json.Unmarshal(bts, &e); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		ok = true
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("view storage: %w", err)
	}

	return e, ok, nil
}

// Close closes the storage.
func (c *Cache) Close() error { return c.db.Close() }
