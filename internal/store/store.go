package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/patrickmn/go-cache"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketHistory = []byte("history")
	bucketImages  = []byte("images")
)

// memoryImageTTL bounds how long image bytes live in a memory-only store.
const memoryImageTTL = 10 * time.Minute

var _ domain.Store = (*Store)(nil)

// Store implements domain.Store using BoltDB.
// Search results are never persisted.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access).
	// Image bytes are never promoted here.
	cache map[string][]byte

	// images holds image bytes when there is no database
	images *cache.Cache
}

// Open opens (or creates) the store under dir. An empty dir gives a
// memory-only store.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return &Store{
			cache:  make(map[string][]byte),
			images: cache.New(memoryImageTTL, memoryImageTTL),
		}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "snapgrid.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketHistory, bucketImages} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// imageKey hashes a URL into a fixed-size key
func imageKey(url string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(hash[:])
}

// === Generic helpers ===

func (s *Store) getRaw(bucket []byte, key string) ([]byte, bool) {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, true
	}
	s.mu.RUnlock()

	data, ok := s.readDB(bucket, key)
	if !ok {
		return nil, false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, true
}

func (s *Store) setRaw(bucket []byte, key string, data []byte) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return s.writeDB(bucket, key, data)
}

func (s *Store) readDB(bucket []byte, key string) ([]byte, bool) {
	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, data != nil
}

func (s *Store) writeDB(bucket []byte, key string, data []byte) error {
	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	data, ok := s.getRaw(bucket, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.setRaw(bucket, key, data)
}

// clearBucket removes every key in a bucket, both in memory and on disk
func (s *Store) clearBucket(bucket []byte) error {
	s.mu.Lock()
	prefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

// === History ===

// GetHistory returns the stored search history, most recent first
func (s *Store) GetHistory() ([]domain.HistoryEntry, bool) {
	var entries []domain.HistoryEntry
	ok := s.get(bucketHistory, "list", &entries)
	return entries, ok
}

// SaveHistory replaces the stored search history
func (s *Store) SaveHistory(entries []domain.HistoryEntry) error {
	return s.set(bucketHistory, "list", entries)
}

// ClearHistory removes all search history
func (s *Store) ClearHistory() error {
	return s.clearBucket(bucketHistory)
}

// === Images ===

// GetImage returns cached image bytes for a URL. With a database the
// bytes are read straight from disk so memory does not grow with the
// number of images viewed.
func (s *Store) GetImage(url string) ([]byte, bool) {
	key := imageKey(url)
	if s.db == nil {
		v, ok := s.images.Get(key)
		if !ok {
			return nil, false
		}
		return v.([]byte), true
	}
	return s.readDB(bucketImages, key)
}

// SaveImage caches image bytes for a URL
func (s *Store) SaveImage(url string, data []byte) error {
	key := imageKey(url)
	if s.db == nil {
		s.images.SetDefault(key, data)
		return nil
	}
	return s.writeDB(bucketImages, key, data)
}

// DeleteImage drops cached bytes for a URL. Missing entries are not an error.
func (s *Store) DeleteImage(url string) error {
	key := imageKey(url)
	if s.db == nil {
		s.images.Delete(key)
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketImages)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// ClearImages removes all cached images
func (s *Store) ClearImages() error {
	if s.db == nil {
		s.images.Flush()
		return nil
	}
	return s.clearBucket(bucketImages)
}

// ImageStats returns the number of cached images and their total size
func (s *Store) ImageStats() (count int, size int64) {
	if s.db == nil {
		for _, item := range s.images.Items() {
			count++
			size += int64(len(item.Object.([]byte)))
		}
		return count, size
	}

	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketImages)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			count++
			size += int64(len(v))
			return nil
		})
	})
	return count, size
}
