package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/billstock/billstock-api/internal/models"
)

// MemoryStock is the in-memory stock inventory, keyed by bill key.
type MemoryStock struct {
	mu    sync.RWMutex
	items map[string]models.StockItem
}

// NewMemoryStock creates an empty in-memory stock store.
func NewMemoryStock() *MemoryStock {
	return &MemoryStock{items: make(map[string]models.StockItem)}
}

// Put stages an item. A second item with the same key is rejected.
func (s *MemoryStock) Put(_ context.Context, item models.StockItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.Bill.Key]; exists {
		return ErrDuplicateKey
	}
	s.items[item.Bill.Key] = item
	return nil
}

// Get returns the staged item for the given key.
func (s *MemoryStock) Get(_ context.Context, key string) (models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[key]
	if !exists {
		return models.StockItem{}, ErrNotFound
	}
	return item, nil
}

// List returns all staged items ordered by import time, then key.
func (s *MemoryStock) List(_ context.Context) ([]models.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.StockItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ImportedAt.Equal(items[j].ImportedAt) {
			return items[i].ImportedAt.Before(items[j].ImportedAt)
		}
		return items[i].Bill.Key < items[j].Bill.Key
	})
	return items, nil
}

// Remove deletes the staged item for the given key.
func (s *MemoryStock) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; !exists {
		return ErrNotFound
	}
	delete(s.items, key)
	return nil
}

// MemorySales is the in-memory append-only sale history ledger.
type MemorySales struct {
	mu    sync.RWMutex
	sales []models.Sale
}

// NewMemorySales creates an empty in-memory sales ledger.
func NewMemorySales() *MemorySales {
	return &MemorySales{}
}

// Append records a completed sale. Entries are never updated or removed.
func (s *MemorySales) Append(_ context.Context, sale models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sales = append(s.sales, sale)
	return nil
}

// List returns the full history, oldest first.
func (s *MemorySales) List(_ context.Context) ([]models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Sale, len(s.sales))
	copy(out, s.sales)
	return out, nil
}

// MemoryMembers is the in-memory member store.
type MemoryMembers struct {
	mu      sync.RWMutex
	members map[string]models.Member
}

// NewMemoryMembers creates an empty in-memory member store.
func NewMemoryMembers() *MemoryMembers {
	return &MemoryMembers{members: make(map[string]models.Member)}
}

// Create adds a member. E-mail addresses are unique.
func (s *MemoryMembers) Create(_ context.Context, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if existing.Email == member.Email {
			return ErrDuplicateKey
		}
	}
	s.members[member.ID] = member
	return nil
}

// GetByID fetches a member by id.
func (s *MemoryMembers) GetByID(_ context.Context, id string) (models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, exists := s.members[id]
	if !exists {
		return models.Member{}, ErrNotFound
	}
	return member, nil
}

// GetByEmail fetches a member by e-mail.
func (s *MemoryMembers) GetByEmail(_ context.Context, email string) (models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, member := range s.members {
		if member.Email == email {
			return member, nil
		}
	}
	return models.Member{}, ErrNotFound
}

// List returns all members ordered by creation time, then e-mail.
func (s *MemoryMembers) List(_ context.Context) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]models.Member, 0, len(s.members))
	for _, member := range s.members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].Email < members[j].Email
	})
	return members, nil
}

// Update replaces an existing member record.
func (s *MemoryMembers) Update(_ context.Context, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.ID]; !exists {
		return ErrNotFound
	}
	s.members[member.ID] = member
	return nil
}

// Delete removes a member by id.
func (s *MemoryMembers) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[id]; !exists {
		return ErrNotFound
	}
	delete(s.members, id)
	return nil
}
