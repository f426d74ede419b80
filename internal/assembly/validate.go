package assembly

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidConfig = errors.New("invalid assembly config")

// MixTolerance is how far the difficulty fractions may drift from 1.0.
const MixTolerance = 0.01

// Validate enforces the business rules a config must pass before it reaches
// the engine. Supply is not checked here; see CheckFeasibility.
func (c Config) Validate() error {
	if c.TotalItems < 0 {
		return fmt.Errorf("%w: total_items must be >= 0", ErrInvalidConfig)
	}
	for t, n := range c.ItemDistribution {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown item type %q", ErrInvalidConfig, t)
		}
		if n < 0 {
			return fmt.Errorf("%w: item_distribution[%s] must be >= 0", ErrInvalidConfig, t)
		}
	}
	if sum := c.distributionSum(); sum != c.TotalItems {
		return fmt.Errorf("%w: item_distribution sums to %d, total_items is %d", ErrInvalidConfig, sum, c.TotalItems)
	}
	if c.Level != "" && !c.Level.Valid() {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidConfig, c.Level)
	}
	mix := c.DifficultyDistribution
	for _, f := range []float64{mix.Easy, mix.Medium, mix.Hard} {
		if f < 0 || f > 1 || math.IsNaN(f) {
			return fmt.Errorf("%w: difficulty fractions must be within [0,1]", ErrInvalidConfig)
		}
	}
	if mix.Sum() == 0 && c.TotalItems == 0 {
		return nil
	}
	if math.Abs(mix.Sum()-1) > MixTolerance {
		return fmt.Errorf("%w: difficulty_distribution sums to %.3f, want 1.0", ErrInvalidConfig, mix.Sum())
	}
	return nil
}
