package itembank

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

// ParseJSON reads either a JSON array of items or {"items":[...]}.
func ParseJSON(r io.Reader) ([]assembly.Item, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var items []assembly.Item
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Items []assembly.Item `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("expected JSON array of items: %w", err)
	}
	return wrapped.Items, nil
}

// ParseCSV reads a header row followed by one item per line. Required columns
// are type, level and difficulty_score; id, tags (";" separated), usage_count
// and content are optional. A content cell that is not JSON is stored as a
// JSON string.
func ParseCSV(r io.Reader) ([]assembly.Item, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"type", "level", "difficulty_score"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	col := func(rec []string, k string) string {
		if i, ok := idx[k]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var items []assembly.Item
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		score, err := strconv.ParseFloat(col(rec, "difficulty_score"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: difficulty_score: %w", line, err)
		}
		it := assembly.Item{
			ID:              col(rec, "id"),
			Type:            assembly.ItemType(strings.ToLower(col(rec, "type"))),
			Level:           assembly.Level(strings.ToUpper(col(rec, "level"))),
			DifficultyScore: score,
		}
		if v := col(rec, "usage_count"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: usage_count: %w", line, err)
			}
			it.UsageCount = n
		}
		for _, t := range strings.Split(col(rec, "tags"), ";") {
			if t = strings.TrimSpace(t); t != "" {
				it.Tags = append(it.Tags, t)
			}
		}
		if c := col(rec, "content"); c != "" {
			if json.Valid([]byte(c)) {
				it.Content = json.RawMessage(c)
			} else {
				b, _ := json.Marshal(c)
				it.Content = b
			}
		}
		items = append(items, it)
	}
	return items, nil
}

// Normalize validates items in place and assigns ids to the ones without.
func Normalize(items []assembly.Item) error {
	seen := make(map[string]int, len(items))
	for i := range items {
		it := &items[i]
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if j, dup := seen[it.ID]; dup {
			return fmt.Errorf("%w: item %d duplicates id %q of item %d", ErrInvalidItem, i, it.ID, j)
		}
		seen[it.ID] = i
		if !it.Type.Valid() {
			return fmt.Errorf("%w: item %q: unknown type %q", ErrInvalidItem, it.ID, it.Type)
		}
		if !it.Level.Valid() {
			return fmt.Errorf("%w: item %q: unknown level %q", ErrInvalidItem, it.ID, it.Level)
		}
		if it.DifficultyScore < 0 || it.DifficultyScore > 1 {
			return fmt.Errorf("%w: item %q: difficulty_score %v outside [0,1]", ErrInvalidItem, it.ID, it.DifficultyScore)
		}
		if it.UsageCount < 0 {
			return fmt.Errorf("%w: item %q: negative usage_count", ErrInvalidItem, it.ID)
		}
	}
	return nil
}
