// Package bookmarks persists the user's bookmarked watchlist records.
//
// Bookmarks are point-in-time copies of the record at the moment it was
// bookmarked; they are not refreshed when a new snapshot arrives. The whole
// set is written under a single key on every mutation.
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"stock-glance/models"
)

// Key is the storage key of the bookmark set. It matches the browser storage key
// of the web dashboard so exported data can be imported unchanged.
const Key = "bookmarkedStocks"

// Store is the in-memory bookmark set backed by a Storage.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	items   []models.Stock
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load reads the persisted set and makes it current. Missing or unreadable data
// yields an empty set; the failure is logged, never returned.
func (s *Store) Load(ctx context.Context) []models.Stock {
	items := s.read(ctx)

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return clone(items)
}

func (s *Store) read(ctx context.Context) []models.Stock {
	data, err := s.storage.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("PERSISTENCE_CORRUPT: failed to read %s: %v", Key, err)
		return nil
	}

	var stored []models.Stock
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("PERSISTENCE_CORRUPT: failed to decode %s: %v", Key, err)
		return nil
	}

	// drop blank and repeated symbols a hand-edited store could contain
	items := make([]models.Stock, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, stock := range stored {
		if stock.Symbol == "" || seen[stock.Symbol] {
			continue
		}
		seen[stock.Symbol] = true
		items = append(items, stock)
	}
	return items
}

// Save replaces the persisted set with items and makes it current.
func (s *Store) Save(ctx context.Context, items []models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, clone(items))
}

// commit persists items and only then makes them current, so a failed write
// leaves the in-memory set as it was. It must be called with mu held.
func (s *Store) commit(ctx context.Context, items []models.Stock) error {
	if items == nil {
		items = []models.Stock{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode bookmarks: %w", err)
	}
	if err := s.storage.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	s.items = items
	return nil
}

// Add bookmarks stock unless its symbol already is.
func (s *Store) Add(ctx context.Context, stock models.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(stock.Symbol) >= 0 {
		return nil
	}
	return s.commit(ctx, append(clone(s.items), stock))
}

// Remove drops the bookmark for symbol if there is one.
func (s *Store) Remove(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(symbol)
	if i < 0 {
		return nil
	}
	return s.commit(ctx, without(s.items, i))
}

// Toggle adds stock when it is not bookmarked and removes it otherwise.
// It reports whether stock is bookmarked afterwards; on error the set is
// unchanged.
func (s *Store) Toggle(ctx context.Context, stock models.Stock) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(stock.Symbol); i >= 0 {
		if err := s.commit(ctx, without(s.items, i)); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.commit(ctx, append(clone(s.items), stock)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) IsBookmarked(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index(symbol) >= 0
}

// Get returns the bookmarked copy of symbol.
func (s *Store) Get(symbol string) (models.Stock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(symbol); i >= 0 {
		return s.items[i], true
	}
	return models.Stock{}, false
}

// List returns the bookmarks in insertion order.
func (s *Store) List() []models.Stock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

func (s *Store) index(symbol string) int {
	for i, stock := range s.items {
		if stock.Symbol == symbol {
			return i
		}
	}
	return -1
}

func without(items []models.Stock, i int) []models.Stock {
	out := make([]models.Stock, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func clone(items []models.Stock) []models.Stock {
	out := make([]models.Stock, len(items))
	copy(out, items)
	return out
}
