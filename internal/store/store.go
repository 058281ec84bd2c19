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

	bolt "go.etcd.io/bbolt"

	"github.com/quadapp/quad/internal/domain"
)

// Bucket names
var (
	bucketEvents  = []byte("events")
	bucketClubs   = []byte("clubs")
	bucketSession = []byte("session")
)

// Store implements domain.CacheStore using BoltDB. Catalogs are mirrored
// wholesale; the session row enables app-launch restoration.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// New opens (or creates) the cache database for a backend URL. An empty
// baseCacheDir selects memory-only mode with no persistence.
func New(baseCacheDir, backendURL string) (*Store, error) {
	if baseCacheDir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if backendURL != "" {
		dir = filepath.Join(baseCacheDir, hashBackendURL(backendURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "quad.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketClubs, bucketSession} {
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

func hashBackendURL(backendURL string) string {
	normalized := strings.TrimRight(strings.ToLower(backendURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
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

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	// Clear from memory cache
	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

// === Catalogs ===

// GetEvents returns the mirrored events catalog
func (s *Store) GetEvents() ([]domain.Event, bool) {
	var events []domain.Event
	ok := s.get(bucketEvents, "list", &events)
	return events, ok
}

// SaveEvents replaces the mirrored events catalog
func (s *Store) SaveEvents(events []domain.Event) error {
	return s.set(bucketEvents, "list", events)
}

// GetClubs returns the mirrored clubs catalog
func (s *Store) GetClubs() ([]domain.Club, bool) {
	var clubs []domain.Club
	ok := s.get(bucketClubs, "list", &clubs)
	return clubs, ok
}

// SaveClubs replaces the mirrored clubs catalog
func (s *Store) SaveClubs(clubs []domain.Club) error {
	return s.set(bucketClubs, "list", clubs)
}

// === Session ===

// GetSession returns the persisted session, if any
func (s *Store) GetSession() (*domain.Session, bool) {
	var sess domain.Session
	if !s.get(bucketSession, "current", &sess) {
		return nil, false
	}
	if sess.AccessToken == "" || sess.User.ID == "" {
		return nil, false
	}
	return &sess, true
}

// SaveSession persists the session for app-launch restoration
func (s *Store) SaveSession(session *domain.Session) error {
	if session == nil {
		s.delete(bucketSession, "current")
		return nil
	}
	return s.set(bucketSession, "current", session)
}

// ClearSession removes the persisted session
func (s *Store) ClearSession() error {
	s.delete(bucketSession, "current")
	return nil
}

// === Invalidation ===

// InvalidateAll wipes catalogs and session from memory and disk
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketClubs, bucketSession} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
