package paper

import (
	"context"
	"slices"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	papers  map[string]Paper
	byOwner map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{papers: map[string]Paper{}, byOwner: map[string][]string{}}
}

func (m *MemoryStore) PutPaper(_ context.Context, p Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[p.ID]; !ok {
		m.byOwner[p.OwnerID] = append(m.byOwner[p.OwnerID], p.ID)
	}
	m.papers[p.ID] = clonePaper(p)
	return nil
}

func (m *MemoryStore) GetPaper(_ context.Context, ownerID, id string) (Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok || p.OwnerID != ownerID {
		return Paper{}, ErrNotFound
	}
	return clonePaper(p), nil
}

func (m *MemoryStore) ListPapers(_ context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit, offset = pageBounds(limit, offset)
	ids := m.byOwner[ownerID]
	out := []Paper{}
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, clonePaper(m.papers[ids[i]]))
	}
	return out, nil
}

func clonePaper(p Paper) Paper {
	p.Requested = p.Requested.Clone()
	if p.Adjusted != nil {
		adj := p.Adjusted.Clone()
		p.Adjusted = &adj
	}
	p.ItemIDs = slices.Clone(p.ItemIDs)
	p.Fallbacks = slices.Clone(p.Fallbacks)
	p.Warnings = slices.Clone(p.Warnings)
	return p
}
