package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	snapshotsBktName = "snapshots"
	seenBktName      = "seen_links"

	latestSnapshotKey = "latest"
)

// Bolt is a storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "brewfeed.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{snapshotsBktName, seenBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// PutSnapshot stores the snapshot both under the "latest" key and
// under its timestamp, so previous states remain reachable.
func (b *Bolt) PutSnapshot(_ context.Context, s Snapshot) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(snapshotsBktName))

		bts, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}

		if err := bkt.Put([]byte(latestSnapshotKey), bts); err != nil {
			return fmt.Errorf("put latest snapshot: %w", err)
		}

		key := s.UpdatedAt.UTC().Format(time.RFC3339)
		if err := bkt.Put([]byte(key), bts); err != nil {
			return fmt.Errorf("put dated snapshot: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// LatestSnapshot returns the most recently stored snapshot.
func (b *Bolt) LatestSnapshot(_ context.Context) (s Snapshot, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(snapshotsBktName))

		bts := bkt.Get([]byte(latestSnapshotKey))
		if bts == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(bts, &s); err != nil {
			return fmt.Errorf("unmarshal snapshot: %w", err)
		}

		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("view storage: %w", err)
	}

	return s, nil
}

// Seen reports whether the article link was stored by a previous run.
func (b *Bolt) Seen(_ context.Context, link string) (seen bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(seenBktName))
		seen = bkt.Get([]byte(link)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("view storage: %w", err)
	}

	return seen, nil
}

// MarkSeen remembers article links, so that following runs may skip them.
func (b *Bolt) MarkSeen(_ context.Context, links []string) error {
	now := []byte(time.Now().UTC().Format(time.RFC3339))

	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(seenBktName))

		for _, link := range links {
			if err := bkt.Put([]byte(link), now); err != nil {
				return fmt.Errorf("put link %s: %w", link, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }
