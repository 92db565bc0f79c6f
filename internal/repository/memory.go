package repository

import (
	"context"
	"sync"
	"time"

	"schedula/internal/models"
)

type selectionEntry struct {
	sel       *models.Selection
	expiresAt time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemorySelectionStore is the in-process fallback. Entries expire lazily on read.
type MemorySelectionStore struct {
	mu         sync.Mutex
	selections map[string]selectionEntry
	rateLimits map[string]*rateLimitEntry
	ttl        time.Duration
	now        func() time.Time
}

func NewMemorySelectionStore(ttl time.Duration) *MemorySelectionStore {
	return &MemorySelectionStore{
		selections: make(map[string]selectionEntry),
		rateLimits: make(map[string]*rateLimitEntry),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *MemorySelectionStore) GetSelection(_ context.Context, clientKey string) (*models.Selection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.selections[clientKey]
	if !ok {
		return nil, nil
	}
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.selections, clientKey)
		return nil, nil
	}
	return entry.sel, nil
}

func (r *MemorySelectionStore) SetSelection(_ context.Context, sel *models.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.selections[sel.ClientKey] = selectionEntry{sel: sel, expiresAt: r.now().Add(r.ttl)}
	return nil
}

func (r *MemorySelectionStore) ClearSelection(_ context.Context, clientKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.selections, clientKey)
	return nil
}

func (r *MemorySelectionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}
