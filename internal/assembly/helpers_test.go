package assembly

import "fmt"

var bandScores = map[Band]float64{BandEasy: 0.1, BandMedium: 0.45, BandHard: 0.8}

// bank builds easy/medium/hard items of one type at level B1 with zero usage.
func bank(t ItemType, easy, medium, hard int) []Item {
	var out []Item
	add := func(b Band, n int) {
		for i := 0; i < n; i++ {
			out = append(out, Item{
				ID:              fmt.Sprintf("%s-%s-%d", t, b, i),
				Type:            t,
				Level:           LevelB1,
				DifficultyScore: bandScores[b],
			})
		}
	}
	add(BandEasy, easy)
	add(BandMedium, medium)
	add(BandHard, hard)
	return out
}

func concat(parts ...[]Item) []Item {
	var out []Item
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func countByType(items []Item) map[ItemType]int {
	out := map[ItemType]int{}
	for _, it := range items {
		out[it.Type]++
	}
	return out
}

func countByBand(items []Item, t ItemType) map[Band]int {
	out := map[Band]int{}
	for _, it := range items {
		if it.Type == t {
			out[it.Band()]++
		}
	}
	return out
}

func uniqueIDs(items []Item) bool {
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.ID] {
			return false
		}
		seen[it.ID] = true
	}
	return true
}
