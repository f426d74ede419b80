package assembly

import "math"

type Band string

const (
	BandEasy   Band = "easy"
	BandMedium Band = "medium"
	BandHard   Band = "hard"
)

var Bands = []Band{BandEasy, BandMedium, BandHard}

const (
	easyUpper   = 0.3
	mediumUpper = 0.6
)

// BandOf maps a difficulty score to its band. easy=[0,0.3) medium=[0.3,0.6)
// hard=[0.6,1]; out-of-range scores fall into the nearest band.
func BandOf(score float64) Band {
	switch {
	case score < easyUpper:
		return BandEasy
	case score < mediumUpper:
		return BandMedium
	default:
		return BandHard
	}
}

// BandCounts is the per-band target for one item type.
type BandCounts struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

func (c BandCounts) Get(b Band) int {
	switch b {
	case BandEasy:
		return c.Easy
	case BandMedium:
		return c.Medium
	default:
		return c.Hard
	}
}

func (c BandCounts) Total() int { return c.Easy + c.Medium + c.Hard }

// Plan splits typeCount over the bands: easy and medium are rounded, hard takes
// the remainder so the three always sum to typeCount. Hard is not clamped here;
// rounding both halves up can drive it negative. Selection uses Clamped.
func Plan(typeCount int, mix DifficultyMix) BandCounts {
	easy := int(math.Round(float64(typeCount) * mix.Easy))
	medium := int(math.Round(float64(typeCount) * mix.Medium))
	return BandCounts{
		Easy:   easy,
		Medium: medium,
		Hard:   typeCount - easy - medium,
	}
}

// Clamped raises a negative hard target to zero and takes the overflow from
// medium, then easy, keeping the total unchanged.
func (c BandCounts) Clamped() BandCounts {
	if c.Hard >= 0 {
		return c
	}
	over := -c.Hard
	c.Hard = 0
	take := min(over, max(c.Medium, 0))
	c.Medium -= take
	c.Easy -= over - take
	return c
}

// Bucket is one (type, band) target.
type Bucket struct {
	Type   ItemType `json:"type"`
	Band   Band     `json:"band"`
	Target int      `json:"target"`
}

// Buckets expands a config into its (type, band) targets in canonical order.
// Buckets with a non-positive target are dropped.
func Buckets(cfg Config) []Bucket {
	var out []Bucket
	for _, t := range cfg.RequestedTypes() {
		counts := Plan(cfg.ItemDistribution[t], cfg.DifficultyDistribution).Clamped()
		for _, b := range Bands {
			if n := counts.Get(b); n > 0 {
				out = append(out, Bucket{Type: t, Band: b, Target: n})
			}
		}
	}
	return out
}
