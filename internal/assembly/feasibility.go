package assembly

import "fmt"

// Suggestion carries the supply gap behind one issue. Type is an item type
// or a band name.
type Suggestion struct {
	Type      string `json:"type"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

type Feasibility struct {
	IsValid     bool         `json:"isValid"`
	Issues      []string     `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
}

// CheckFeasibility counts supply against cfg without selecting anything.
// Type supply is counted across all bands; band supply is counted over the
// requested types only.
func CheckFeasibility(snapshot []Item, cfg Config) Feasibility {
	out := Feasibility{IsValid: true, Issues: []string{}, Suggestions: []Suggestion{}}
	types := cfg.RequestedTypes()
	if cfg.TotalItems == 0 || len(types) == 0 {
		return out
	}

	sel := NewSelector(nil, DefaultOversample)
	base := Filter{Level: cfg.Level, Tags: mergeTags(cfg.Topics, cfg.Tags)}
	matching := sel.Candidates(snapshot, base)

	byType := map[ItemType]int{}
	byBand := map[Band]int{}
	requested := map[ItemType]bool{}
	for _, t := range types {
		requested[t] = true
	}
	for _, it := range matching {
		byType[it.Type]++
		if requested[it.Type] {
			byBand[it.Band()]++
		}
	}

	needBand := map[Band]int{}
	for _, t := range types {
		need := cfg.ItemDistribution[t]
		if have := byType[t]; have < need {
			out.addIssue(fmt.Sprintf("Insufficient %s items", t), string(t), have, need)
		}
		counts := Plan(need, cfg.DifficultyDistribution).Clamped()
		for _, b := range Bands {
			if n := counts.Get(b); n > 0 {
				needBand[b] += n
			}
		}
	}
	for _, b := range Bands {
		need := needBand[b]
		if have := byBand[b]; need > 0 && have < need {
			out.addIssue(fmt.Sprintf("Insufficient %s items", b), string(b), have, need)
		}
	}
	return out
}

func (f *Feasibility) addIssue(msg, key string, available, required int) {
	f.IsValid = false
	f.Issues = append(f.Issues, msg)
	f.Suggestions = append(f.Suggestions, Suggestion{Type: key, Available: available, Required: required})
}
