package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/veille-cyber/internal/domain"
)

const (
	runBucket      = "runs"
	metaBucket     = "meta"
	lastCleanupKey = "last_cleanup"
	keyBytes       = 8
)

// storedRun is the bucket value: the record plus its expiry.
type storedRun struct {
	ExpiresAt int64            `json:"expires_at"`
	Run       domain.RunRecord `json:"run"`
}

// boltStore implements a Store backed by BoltDB. Keys are big-endian
// unix nanoseconds of the run, so cursor order is chronological.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	runTTL          time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	var lastCleanup int64
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runBucket)); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		if v := meta.Get([]byte(lastCleanupKey)); len(v) == keyBytes {
			lastCleanup = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		runTTL:          opts.RunTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	// The cadence spans process runs; a missing mark means cleanup is due.
	store.lastCleanup.Store(lastCleanup)
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// RecordRun stores rec keyed by its generation time.
func (b *boltStore) RecordRun(rec domain.RunRecord) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = now
	}

	value, err := json.Marshal(storedRun{
		ExpiresAt: now.Add(b.runTTL).Unix(),
		Run:       rec,
	})
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}
		return bucket.Put(runKey(rec.GeneratedAt), value)
	})
}

// Recent walks the bucket backwards, skipping expired or unreadable entries.
func (b *boltStore) Recent(limit int) ([]domain.RunRecord, error) {
	if b == nil || b.db == nil || limit <= 0 {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var runs []domain.RunRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(runs) < limit; k, v = cursor.Prev() {
			stored, ok := decodeRun(v)
			if !ok || !time.Unix(stored.ExpiresAt, 0).After(now) {
				continue
			}
			runs = append(runs, stored.Run)
		}
		return nil
	})
	return runs, err
}

// maybeCleanupExpired removes expired runs on a fixed cadence.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(runBucket))
		if bucket == nil {
			return fmt.Errorf("run bucket missing")
		}

		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			if stored, ok := decodeRun(v); !ok || !time.Unix(stored.ExpiresAt, 0).After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		mark := make([]byte, keyBytes)
		binary.BigEndian.PutUint64(mark, uint64(now.Unix()))
		return meta.Put([]byte(lastCleanupKey), mark)
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func runKey(t time.Time) []byte {
	buf := make([]byte, keyBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
	return buf
}

func decodeRun(value []byte) (storedRun, bool) {
	var stored storedRun
	if err := json.Unmarshal(value, &stored); err != nil {
		return storedRun{}, false
	}
	if stored.ExpiresAt <= 0 {
		return storedRun{}, false
	}
	return stored, true
}
