package assembly

import (
	"encoding/json"
	"sort"
)

type ItemType string

const (
	TypeMCQ             ItemType = "mcq"
	TypeCloze           ItemType = "cloze"
	TypeErrorCorrection ItemType = "error_correction"
	TypeMatching        ItemType = "matching"
	TypeReadingQ        ItemType = "reading_q"
	TypeWritingTask     ItemType = "writing_task"
)

// ItemTypes is the canonical type order. Selection output and planning follow it.
var ItemTypes = []ItemType{
	TypeMCQ,
	TypeCloze,
	TypeErrorCorrection,
	TypeMatching,
	TypeReadingQ,
	TypeWritingTask,
}

func (t ItemType) Valid() bool {
	for _, k := range ItemTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Level is a CEFR level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

func (l Level) Valid() bool {
	for _, k := range Levels {
		if k == l {
			return true
		}
	}
	return false
}

type Item struct {
	ID              string          `json:"id"`
	Type            ItemType        `json:"type"`
	Level           Level           `json:"level"`
	DifficultyScore float64         `json:"difficulty_score"`
	Tags            []string        `json:"tags,omitempty"`
	UsageCount      int             `json:"usage_count"`
	Content         json.RawMessage `json:"content,omitempty"` // opaque to the engine
}

func (it Item) Band() Band { return BandOf(it.DifficultyScore) }

// DifficultyMix holds the requested fraction per band.
type DifficultyMix struct {
	Easy   float64 `json:"easy" yaml:"easy"`
	Medium float64 `json:"medium" yaml:"medium"`
	Hard   float64 `json:"hard" yaml:"hard"`
}

func (m DifficultyMix) Sum() float64 { return m.Easy + m.Medium + m.Hard }

func (m DifficultyMix) Fraction(b Band) float64 {
	switch b {
	case BandEasy:
		return m.Easy
	case BandMedium:
		return m.Medium
	default:
		return m.Hard
	}
}

// Config is the requested paper shape (AssemblyConfig on the wire).
type Config struct {
	TotalItems             int              `json:"total_items" yaml:"total_items"`
	ItemDistribution       map[ItemType]int `json:"item_distribution" yaml:"item_distribution"`
	DifficultyDistribution DifficultyMix    `json:"difficulty_distribution" yaml:"difficulty_distribution"`
	Level                  Level            `json:"level,omitempty" yaml:"level,omitempty"`
	Topics                 []string         `json:"topics,omitempty" yaml:"topics,omitempty"`
	Tags                   []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Clone returns a deep copy so adjustments never leak into the caller's config.
func (c Config) Clone() Config {
	out := c
	out.ItemDistribution = make(map[ItemType]int, len(c.ItemDistribution))
	for k, v := range c.ItemDistribution {
		out.ItemDistribution[k] = v
	}
	out.Topics = append([]string(nil), c.Topics...)
	out.Tags = append([]string(nil), c.Tags...)
	return out
}

// RequestedTypes returns the types with a positive count, known types first in
// canonical order followed by unknown ones sorted by name.
func (c Config) RequestedTypes() []ItemType {
	out := make([]ItemType, 0, len(c.ItemDistribution))
	for _, t := range ItemTypes {
		if c.ItemDistribution[t] > 0 {
			out = append(out, t)
		}
	}
	var extra []ItemType
	for t, n := range c.ItemDistribution {
		if n > 0 && !t.Valid() {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func (c Config) distributionSum() int {
	sum := 0
	for _, n := range c.ItemDistribution {
		sum += n
	}
	return sum
}

func (c Config) equal(o Config) bool {
	if c.TotalItems != o.TotalItems || c.Level != o.Level || c.DifficultyDistribution != o.DifficultyDistribution {
		return false
	}
	if !equalCounts(c.ItemDistribution, o.ItemDistribution) {
		return false
	}
	return equalStrings(c.Topics, o.Topics) && equalStrings(c.Tags, o.Tags)
}

func equalCounts(a, b map[ItemType]int) bool {
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	for k, v := range b {
		if a[k] != v {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Strategy names a rung of the fallback ladder.
type Strategy string

const (
	StrategyRelaxDifficulty Strategy = "difficulty_distribution_relaxed"
	StrategySubstituteTypes Strategy = "item_types_substituted"
	StrategyReduceTotal     Strategy = "total_items_reduced"
	StrategyEmergency       Strategy = "emergency_fallback"
)

// Result is the outcome of one assembly call (FallbackResult on the wire).
type Result struct {
	Success          bool       `json:"success"`
	SelectedItems    []Item     `json:"selectedItems"`
	FallbacksApplied []Strategy `json:"fallbacksApplied"`
	Warnings         []string   `json:"warnings"`
	AdjustedConfig   *Config    `json:"adjustedConfig,omitempty"`
}

// IDs returns the selected item IDs in selection order.
func (r Result) IDs() []string {
	out := make([]string, len(r.SelectedItems))
	for i, it := range r.SelectedItems {
		out[i] = it.ID
	}
	return out
}

// Target is the item count the result was measured against.
func (r Result) Target(requested Config) int {
	if r.AdjustedConfig != nil {
		return r.AdjustedConfig.TotalItems
	}
	return requested.TotalItems
}
