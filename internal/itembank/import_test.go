package itembank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

func TestParseCSV(t *testing.T) {
	in := `id,type,level,difficulty_score,tags,usage_count,content
q1,MCQ,b1,0.25,grammar; tenses,3,"{""stem"":""pick one""}"
,cloze,B2,0.7,,,plain text
`
	items, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "q1", items[0].ID)
	assert.Equal(t, assembly.TypeMCQ, items[0].Type)
	assert.Equal(t, assembly.LevelB1, items[0].Level)
	assert.InDelta(t, 0.25, items[0].DifficultyScore, 1e-9)
	assert.Equal(t, []string{"grammar", "tenses"}, items[0].Tags)
	assert.Equal(t, 3, items[0].UsageCount)
	assert.JSONEq(t, `{"stem":"pick one"}`, string(items[0].Content))

	assert.Empty(t, items[1].ID)
	assert.Nil(t, items[1].Tags)
	assert.JSONEq(t, `"plain text"`, string(items[1].Content))
}

func TestParseCSVErrors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("id,type,level\nq1,mcq,B1\n"))
	assert.ErrorContains(t, err, "missing column: difficulty_score")

	_, err = ParseCSV(strings.NewReader("type,level,difficulty_score\nmcq,B1,hard\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestParseJSON(t *testing.T) {
	arr, err := ParseJSON(strings.NewReader(`[{"id":"a","type":"mcq","level":"A1","difficulty_score":0.1}]`))
	require.NoError(t, err)
	require.Len(t, arr, 1)
	assert.Equal(t, "a", arr[0].ID)

	wrapped, err := ParseJSON(strings.NewReader(`{"items":[{"id":"b","type":"cloze","level":"A2","difficulty_score":0.5}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, assembly.TypeCloze, wrapped[0].Type)

	_, err = ParseJSON(strings.NewReader(`"nope"`))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	items := []assembly.Item{
		{Type: assembly.TypeMCQ, Level: assembly.LevelA1, DifficultyScore: 0.3},
		{ID: " x ", Type: assembly.TypeCloze, Level: assembly.LevelA1, DifficultyScore: 1},
	}
	require.NoError(t, Normalize(items))
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, "x", items[1].ID)

	cases := map[string]assembly.Item{
		"type":  {ID: "a", Type: "essay", Level: assembly.LevelA1},
		"level": {ID: "a", Type: assembly.TypeMCQ, Level: "D1"},
		"score": {ID: "a", Type: assembly.TypeMCQ, Level: assembly.LevelA1, DifficultyScore: 1.2},
		"usage": {ID: "a", Type: assembly.TypeMCQ, Level: assembly.LevelA1, UsageCount: -1},
	}
	for name, it := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, Normalize([]assembly.Item{it}), ErrInvalidItem)
		})
	}

	dup := []assembly.Item{
		{ID: "a", Type: assembly.TypeMCQ, Level: assembly.LevelA1},
		{ID: "a", Type: assembly.TypeMCQ, Level: assembly.LevelA1},
	}
	assert.ErrorIs(t, Normalize(dup), ErrInvalidItem)
}
