package assembly

import (
	"math/rand/v2"
	"sort"
)

// DefaultOversample bounds the least-used head slice that gets shuffled.
const DefaultOversample = 2

// Filter describes which snapshot items a bucket may draw from. Zero-valued
// fields match everything.
type Filter struct {
	Type    ItemType
	Level   Level
	Bands   []Band
	Tags    []string // item must carry at least one of these
	Exclude map[string]struct{}
}

func (f Filter) Match(it Item) bool {
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if f.Level != "" && it.Level != f.Level {
		return false
	}
	if len(f.Bands) > 0 && !containsBand(f.Bands, it.Band()) {
		return false
	}
	if len(f.Tags) > 0 && !overlaps(f.Tags, it.Tags) {
		return false
	}
	if _, skip := f.Exclude[it.ID]; skip {
		return false
	}
	return true
}

func containsBand(bands []Band, b Band) bool {
	for _, x := range bands {
		if x == b {
			return true
		}
	}
	return false
}

func overlaps(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

// Selector picks items for one bucket: filter and rank, oversample, shuffle,
// truncate.
type Selector struct {
	Oversample int
	rng        *rand.Rand
}

func NewSelector(rng *rand.Rand, oversample int) *Selector {
	if oversample < 1 {
		oversample = DefaultOversample
	}
	return &Selector{Oversample: oversample, rng: rng}
}

// Candidates returns the matching items ranked least-used first, ID as the
// tiebreak. Duplicate IDs in the snapshot are collapsed to their first entry.
func (s *Selector) Candidates(snapshot []Item, f Filter) []Item {
	seen := make(map[string]struct{})
	out := make([]Item, 0, len(snapshot))
	for _, it := range snapshot {
		if !f.Match(it) {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount < out[j].UsageCount
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Pool is the oversample slice: the first min(Oversample*count, len) ranked
// candidates.
func (s *Selector) Pool(ranked []Item, count int) []Item {
	if count <= 0 {
		return nil
	}
	n := s.Oversample * count
	if n > len(ranked) {
		n = len(ranked)
	}
	pool := make([]Item, n)
	copy(pool, ranked[:n])
	return pool
}

// Select returns up to count items. Fewer than count is the shortfall signal.
func (s *Selector) Select(snapshot []Item, f Filter, count int) []Item {
	pool := s.Pool(s.Candidates(snapshot, f), count)
	if s.rng != nil {
		s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool
}

// Count reports how many items match f without selecting anything.
func (s *Selector) Count(snapshot []Item, f Filter) int {
	return len(s.Candidates(snapshot, f))
}
