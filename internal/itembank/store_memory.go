package itembank

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

// MemoryStore is a Store for tests and the CLI. Items are kept per owner in
// insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]*ownerBank
}

type ownerBank struct {
	byID  map[string]assembly.Item
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{owners: map[string]*ownerBank{}}
}

func (m *MemoryStore) bank(ownerID string) *ownerBank {
	b := m.owners[ownerID]
	if b == nil {
		b = &ownerBank{byID: map[string]assembly.Item{}}
		m.owners[ownerID] = b
	}
	return b
}

func (m *MemoryStore) PutItems(_ context.Context, ownerID string, items []assembly.Item) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bank(ownerID)
	ins, upd := 0, 0
	for _, it := range items {
		it = cloneItem(it)
		if prev, ok := b.byID[it.ID]; ok {
			it.UsageCount = prev.UsageCount
			b.byID[it.ID] = it
			upd++
			continue
		}
		b.byID[it.ID] = it
		b.order = append(b.order, it.ID)
		ins++
	}
	return ins, upd, nil
}

func (m *MemoryStore) GetItem(_ context.Context, ownerID, id string) (assembly.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := m.owners[ownerID]
	if b == nil {
		return assembly.Item{}, ErrNotFound
	}
	it, ok := b.byID[id]
	if !ok {
		return assembly.Item{}, ErrNotFound
	}
	return cloneItem(it), nil
}

func (m *MemoryStore) ListItems(_ context.Context, ownerID string, opts ListOpts) ([]assembly.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []assembly.Item{}
	b := m.owners[ownerID]
	if b == nil {
		return out, nil
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tag := strings.TrimSpace(opts.Tag)
	skipped := 0
	for _, id := range b.order {
		it := b.byID[id]
		if opts.Type != "" && it.Type != opts.Type {
			continue
		}
		if opts.Level != "" && it.Level != opts.Level {
			continue
		}
		if tag != "" && !slices.Contains(it.Tags, tag) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, cloneItem(it))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.owners[ownerID]
	if b == nil {
		return ErrNotFound
	}
	if _, ok := b.byID[id]; !ok {
		return ErrNotFound
	}
	delete(b.byID, id)
	b.order = slices.DeleteFunc(b.order, func(s string) bool { return s == id })
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context, ownerID string, level assembly.Level) ([]assembly.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []assembly.Item{}
	b := m.owners[ownerID]
	if b == nil {
		return out, nil
	}
	for _, it := range b.byID {
		if level != "" && it.Level != level {
			continue
		}
		out = append(out, cloneItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) IncrementUsage(_ context.Context, ownerID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.owners[ownerID]
	if b == nil {
		return nil
	}
	for _, id := range dedupe(ids) {
		if it, ok := b.byID[id]; ok {
			it.UsageCount++
			b.byID[id] = it
		}
	}
	return nil
}

func cloneItem(it assembly.Item) assembly.Item {
	it.Tags = slices.Clone(it.Tags)
	it.Content = slices.Clone(it.Content)
	return it
}
