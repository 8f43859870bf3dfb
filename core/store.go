package core

import (
	"context"
	"sort"
	"sync"
)

// Store is the keyed collection of auction records. It holds no policy:
// callers validate before writing.
type Store interface {
	// Get returns a copy of the record for key or ErrAuctionNotFound.
	Get(ctx context.Context, key AuctionKey) (*Auction, error)
	// Put stores a copy of auction under key, with its Key set to key.
	Put(ctx context.Context, key AuctionKey, auction *Auction) error
	// Clear removes the record for key. Clearing an absent key is not an error.
	Clear(ctx context.Context, key AuctionKey) error
	// List returns every stored record ordered by key.
	List(ctx context.Context) ([]Auction, error)
}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu       sync.RWMutex
	auctions map[AuctionKey]Auction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{auctions: make(map[AuctionKey]Auction)}
}

func (s *MemoryStore) Get(_ context.Context, key AuctionKey) (*Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[key]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return &auction, nil
}

func (s *MemoryStore) Put(_ context.Context, key AuctionKey, auction *Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *auction
	stored.Key = key
	s.auctions[key] = stored
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, key AuctionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.auctions, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]AuctionKey, 0, len(s.auctions))
	for key := range s.auctions {
		keys = append(keys, key)
	}
	SortKeys(keys)

	auctions := make([]Auction, 0, len(keys))
	for _, key := range keys {
		auctions = append(auctions, s.auctions[key])
	}
	return auctions, nil
}

// SortKeys orders keys by registry, then asset ID.
func SortKeys(keys []AuctionKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Registry != keys[j].Registry {
			return keys[i].Registry < keys[j].Registry
		}
		return keys[i].AssetID < keys[j].AssetID
	})
}
