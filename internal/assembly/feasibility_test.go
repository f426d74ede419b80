package assembly

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFeasibilityTrivial(t *testing.T) {
	got := CheckFeasibility(nil, Config{})
	assert.True(t, got.IsValid)
	assert.Empty(t, got.Issues)
	assert.Empty(t, got.Suggestions)

	got = CheckFeasibility(nil, Config{TotalItems: 3, ItemDistribution: map[ItemType]int{TypeMCQ: 0}})
	assert.True(t, got.IsValid)
}

func TestCheckFeasibilitySufficient(t *testing.T) {
	snap := concat(bank(TypeMCQ, 5, 5, 5), bank(TypeCloze, 5, 5, 5))
	cfg := Config{
		TotalItems:             10,
		ItemDistribution:       map[ItemType]int{TypeMCQ: 6, TypeCloze: 4},
		DifficultyDistribution: DifficultyMix{0.5, 0.3, 0.2},
		Level:                  LevelB1,
	}
	got := CheckFeasibility(snap, cfg)
	assert.True(t, got.IsValid)
	assert.Empty(t, got.Issues)
}

func TestCheckFeasibilityOddCountWithHalvedMix(t *testing.T) {
	cfg := Config{
		TotalItems:             3,
		ItemDistribution:       map[ItemType]int{TypeMCQ: 3},
		DifficultyDistribution: DifficultyMix{0.5, 0.5, 0},
	}

	got := CheckFeasibility(bank(TypeMCQ, 2, 1, 0), cfg)
	assert.True(t, got.IsValid)
	assert.Empty(t, got.Issues)

	got = CheckFeasibility(bank(TypeMCQ, 1, 2, 0), cfg)
	assert.False(t, got.IsValid)
	assert.Equal(t, []Suggestion{{Type: "easy", Available: 1, Required: 2}}, got.Suggestions)
}

func TestCheckFeasibilityReportsTypesAndBands(t *testing.T) {
	snap := concat(bank(TypeMCQ, 2, 0, 0), bank(TypeCloze, 5, 5, 5), bank(TypeMatching, 0, 0, 9))
	cfg := Config{
		TotalItems:             8,
		ItemDistribution:       map[ItemType]int{TypeMCQ: 5, TypeCloze: 3},
		DifficultyDistribution: DifficultyMix{0, 0, 1},
	}

	got := CheckFeasibility(snap, cfg)

	assert.False(t, got.IsValid)
	assert.Equal(t, []string{"Insufficient mcq items", "Insufficient hard items"}, got.Issues)
	assert.Equal(t, []Suggestion{
		{Type: "mcq", Available: 2, Required: 5},
		{Type: "hard", Available: 5, Required: 8},
	}, got.Suggestions)
}

func TestCheckFeasibilityAppliesLevelAndTags(t *testing.T) {
	snap := bank(TypeReadingQ, 4, 0, 0)
	snap[0].Tags = []string{"science"}
	cfg := Config{
		TotalItems:             2,
		ItemDistribution:       map[ItemType]int{TypeReadingQ: 2},
		DifficultyDistribution: DifficultyMix{1, 0, 0},
		Tags:                   []string{"science"},
	}

	got := CheckFeasibility(snap, cfg)
	require.False(t, got.IsValid)
	assert.Equal(t, Suggestion{Type: "reading_q", Available: 1, Required: 2}, got.Suggestions[0])

	cfg.Tags = nil
	cfg.Level = LevelC2
	got = CheckFeasibility(snap, cfg)
	assert.Equal(t, 0, got.Suggestions[0].Available)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		TotalItems:             4,
		ItemDistribution:       map[ItemType]int{TypeMCQ: 3, TypeCloze: 1},
		DifficultyDistribution: DifficultyMix{0.3, 0.3, 0.4},
		Level:                  LevelA2,
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty paper", func(c *Config) { *c = Config{} }, false},
		{"negative total", func(c *Config) { c.TotalItems = -1 }, true},
		{"sum mismatch", func(c *Config) { c.TotalItems = 5 }, true},
		{"unknown type", func(c *Config) { c.ItemDistribution = map[ItemType]int{"essay": 4} }, true},
		{"negative count", func(c *Config) { c.ItemDistribution = map[ItemType]int{TypeMCQ: 5, TypeCloze: -1} }, true},
		{"unknown level", func(c *Config) { c.Level = "D1" }, true},
		{"mix too low", func(c *Config) { c.DifficultyDistribution = DifficultyMix{0.3, 0.3, 0.3} }, true},
		{"mix within tolerance", func(c *Config) { c.DifficultyDistribution = DifficultyMix{0.335, 0.33, 0.33} }, false},
		{"fraction out of range", func(c *Config) { c.DifficultyDistribution = DifficultyMix{1.5, -0.5, 0} }, true},
		{"zero mix needs empty paper", func(c *Config) { c.DifficultyDistribution = DifficultyMix{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid.Clone()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
		})
	}
}
