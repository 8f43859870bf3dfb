// Package pebblestore is a durable core.Store on top of Pebble. Records are
// CBOR-encoded and recently read ones are kept in an LRU cache.
package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cloudx-io/openescrow/core"
)

const (
	keyPrefix        = "auction/"
	defaultCacheSize = 1024
)

var ErrClosed = errors.New("auction store is closed")

// Options configures Open.
type Options struct {
	// CacheSize is the number of decoded records kept in memory.
	CacheSize int

	// FS overrides the filesystem, for tests. Defaults to the OS filesystem.
	FS vfs.FS
}

// Store implements core.Store.
type Store struct {
	mu    sync.RWMutex
	db    *pebble.DB
	cache *lru.Cache[core.AuctionKey, core.Auction]
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the store at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	cache, err := lru.New[core.AuctionKey, core.Auction](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}

	pebbleOpts := &pebble.Options{}
	if opts.FS != nil {
		pebbleOpts.FS = opts.FS
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}

	return &Store{db: db, cache: cache}, nil
}

// Close flushes and closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	s.cache.Purge()

	if err := db.Flush(); err != nil {
		db.Close()
		return fmt.Errorf("flush auction store: %w", err)
	}
	return db.Close()
}

func (s *Store) Get(_ context.Context, key core.AuctionKey) (*core.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	if cached, ok := s.cache.Get(key); ok {
		return &cached, nil
	}

	val, closer, err := s.db.Get(dbKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, core.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("read auction %s: %w", key, err)
	}
	defer closer.Close()

	auction, err := decodeAuction(val)
	if err != nil {
		return nil, fmt.Errorf("auction %s: %w", key, err)
	}
	s.cache.Add(key, *auction)
	return auction, nil
}

func (s *Store) Put(_ context.Context, key core.AuctionKey, auction *core.Auction) error {
	stored := *auction
	stored.Key = key

	data, err := encodeAuction(&stored)
	if err != nil {
		return fmt.Errorf("encode auction %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	if err := s.db.Set(dbKey(key), data, pebble.Sync); err != nil {
		s.cache.Remove(key)
		return fmt.Errorf("write auction %s: %w", key, err)
	}
	s.cache.Add(key, stored)
	return nil
}

func (s *Store) Clear(_ context.Context, key core.AuctionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	s.cache.Remove(key)
	if err := s.db.Delete(dbKey(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete auction %s: %w", key, err)
	}
	return nil
}

// List scans every record. Keys on disk are hashed, so results are sorted
// after decoding.
func (s *Store) List(_ context.Context) ([]core.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: prefixUpperBound([]byte(keyPrefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("scan auctions: %w", err)
	}
	defer iter.Close()

	byKey := make(map[core.AuctionKey]core.Auction)
	keys := make([]core.AuctionKey, 0)
	for iter.First(); iter.Valid(); iter.Next() {
		auction, err := decodeAuction(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", iter.Key(), err)
		}
		byKey[auction.Key] = *auction
		keys = append(keys, auction.Key)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan auctions: %w", err)
	}

	core.SortKeys(keys)
	auctions := make([]core.Auction, 0, len(keys))
	for _, key := range keys {
		auctions = append(auctions, byKey[key])
	}
	return auctions, nil
}

func dbKey(key core.AuctionKey) []byte {
	return []byte(keyPrefix + core.ComputeKeyHash(key))
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
