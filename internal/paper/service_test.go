package paper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	"github.com/mind-engage/mindengage-assembly/internal/db"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	syncx "github.com/mind-engage/mindengage-assembly/internal/sync"
)

type recordingSink struct {
	events []syncx.Event
	err    error
}

func (r *recordingSink) Append(_ context.Context, e syncx.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func items(typ assembly.ItemType, easy, medium, hard int) []assembly.Item {
	var out []assembly.Item
	add := func(band string, n int, score float64) {
		for i := 0; i < n; i++ {
			out = append(out, assembly.Item{
				ID:              fmt.Sprintf("%s-%s-%d", typ, band, i),
				Type:            typ,
				Level:           assembly.LevelB1,
				DifficultyScore: score,
			})
		}
	}
	add("easy", easy, 0.1)
	add("medium", medium, 0.45)
	add("hard", hard, 0.8)
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("paper-%d", n)
	}
}

func twoMCQ() assembly.Config {
	return assembly.Config{
		TotalItems:             2,
		ItemDistribution:       map[assembly.ItemType]int{assembly.TypeMCQ: 2},
		DifficultyDistribution: assembly.DifficultyMix{Easy: 0.5, Medium: 0.5},
	}
}

func newService(t *testing.T, bank []assembly.Item, opts ...Option) (*Service, *itembank.MemoryStore, *MemoryStore) {
	t.Helper()
	ib := itembank.NewMemoryStore()
	_, _, err := ib.PutItems(context.Background(), "alice", bank)
	require.NoError(t, err)
	ps := NewMemoryStore()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return NewService(ib, ps, assembly.NewEngine(), opts...), ib, ps
}

func TestAssembleCommitsPaper(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	svc, ib, _ := newService(t, items(assembly.TypeMCQ, 2, 2, 2), WithEvents(sink))

	out, err := svc.Assemble(ctx, "alice", Request{Title: "Unit 3", Config: twoMCQ()})
	require.NoError(t, err)
	require.NotNil(t, out.Paper)
	assert.True(t, out.Result.Success)
	assert.Equal(t, "paper-1", out.Paper.ID)
	assert.Equal(t, "Unit 3", out.Paper.Title)
	assert.Len(t, out.Paper.ItemIDs, 2)
	assert.Empty(t, out.Paper.Fallbacks)
	assert.Nil(t, out.Paper.Adjusted)

	stored, err := svc.Get(ctx, "alice", "paper-1")
	require.NoError(t, err)
	assert.Equal(t, out.Paper.ItemIDs, stored.ItemIDs)

	for _, id := range out.Paper.ItemIDs {
		it, err := ib.GetItem(ctx, "alice", id)
		require.NoError(t, err)
		assert.Equal(t, 1, it.UsageCount, id)
	}

	require.Len(t, sink.events, 1)
	assert.Equal(t, syncx.EventPaperAssembled, sink.events[0].Type)
	assert.Equal(t, "paper-1", sink.events[0].Key)
}

func TestAssembleDryRunLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	svc, ib, ps := newService(t, items(assembly.TypeMCQ, 2, 2, 2), WithEvents(sink))

	out, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ(), DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, out.Paper)
	assert.True(t, out.DryRun)

	_, err = ps.GetPaper(ctx, "alice", out.Paper.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	snap, err := ib.Snapshot(ctx, "alice", "")
	require.NoError(t, err)
	for _, it := range snap {
		assert.Zero(t, it.UsageCount)
	}
	assert.Empty(t, sink.events)
}

func TestAssembleSameSeedSameSelection(t *testing.T) {
	ctx := context.Background()
	seed := uint64(42)
	svc, _, _ := newService(t, items(assembly.TypeMCQ, 6, 6, 6), WithFixedSeed(&seed))

	a, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ(), DryRun: true})
	require.NoError(t, err)
	b, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ(), DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, a.Result.IDs(), b.Result.IDs())
	assert.NotEqual(t, a.Paper.ID, b.Paper.ID)
}

func TestAssembleRecordsFallbacks(t *testing.T) {
	ctx := context.Background()
	bank := append(items(assembly.TypeErrorCorrection, 2, 2, 2), items(assembly.TypeCloze, 2, 2, 2)...)
	svc, _, _ := newService(t, bank)

	cfg := assembly.Config{
		TotalItems:             2,
		ItemDistribution:       map[assembly.ItemType]int{assembly.TypeWritingTask: 2},
		DifficultyDistribution: assembly.DifficultyMix{Easy: 0.5, Medium: 0.5},
	}
	out, err := svc.Assemble(ctx, "alice", Request{Config: cfg})
	require.NoError(t, err)
	assert.Contains(t, out.Paper.Fallbacks, assembly.StrategySubstituteTypes)
	require.NotNil(t, out.Paper.Adjusted)
	assert.Zero(t, out.Paper.Adjusted.ItemDistribution[assembly.TypeWritingTask])

	stored, err := svc.Get(ctx, "alice", out.Paper.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Paper.Fallbacks, stored.Fallbacks)
	assert.NotEmpty(t, stored.Warnings)
}

func TestAssembleEmptyBank(t *testing.T) {
	ctx := context.Background()
	svc, _, ps := newService(t, nil)

	out, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ()})
	require.ErrorIs(t, err, ErrNoItems)
	assert.Contains(t, err.Error(), "requested 2, found 0")
	assert.False(t, out.Result.Success)
	assert.Nil(t, out.Paper)

	list, err := ps.ListPapers(ctx, "alice", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssembleRejectsInvalidConfig(t *testing.T) {
	svc, _, _ := newService(t, items(assembly.TypeMCQ, 1, 1, 1))
	cfg := twoMCQ()
	cfg.TotalItems = 3

	_, err := svc.Assemble(context.Background(), "alice", Request{Config: cfg})
	assert.ErrorIs(t, err, assembly.ErrInvalidConfig)

	_, err = svc.CheckFeasibility(context.Background(), "alice", cfg)
	assert.ErrorIs(t, err, assembly.ErrInvalidConfig)
}

func TestAssembleEventFailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	svc, _, _ := newService(t, items(assembly.TypeMCQ, 2, 2, 2), WithEvents(sink))

	out, err := svc.Assemble(context.Background(), "alice", Request{Config: twoMCQ()})
	require.NoError(t, err)
	assert.NotNil(t, out.Paper)
	assert.Len(t, sink.events, 1)
}

type failingUsage struct {
	*itembank.MemoryStore
}

func (failingUsage) IncrementUsage(context.Context, string, []string) error {
	return errors.New("database is locked")
}

func TestAssembleUsageFailureKeepsPaper(t *testing.T) {
	ctx := context.Background()
	ib := itembank.NewMemoryStore()
	_, _, err := ib.PutItems(ctx, "alice", items(assembly.TypeMCQ, 2, 2, 2))
	require.NoError(t, err)
	ps := NewMemoryStore()
	sink := &recordingSink{}
	svc := NewService(failingUsage{ib}, ps, assembly.NewEngine(), WithIDGenerator(sequentialIDs()), WithEvents(sink))

	out, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ()})
	require.NoError(t, err)
	require.NotNil(t, out.Paper)

	stored, err := ps.GetPaper(ctx, "alice", "paper-1")
	require.NoError(t, err)
	assert.Equal(t, out.Paper.ItemIDs, stored.ItemIDs)
	assert.Len(t, sink.events, 1)

	list, err := ps.ListPapers(ctx, "alice", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCheckFeasibility(t *testing.T) {
	svc, _, _ := newService(t, items(assembly.TypeMCQ, 1, 0, 0))

	rep, err := svc.CheckFeasibility(context.Background(), "alice", twoMCQ())
	require.NoError(t, err)
	assert.False(t, rep.IsValid)
	assert.Contains(t, rep.Issues, "Insufficient mcq items")
	assert.Contains(t, rep.Issues, "Insufficient medium items")
}

func TestListIsOwnerScopedNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, ib, _ := newService(t, items(assembly.TypeMCQ, 4, 4, 4))
	_, _, err := ib.PutItems(ctx, "bob", items(assembly.TypeMCQ, 2, 2, 0))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Assemble(ctx, "alice", Request{Config: twoMCQ()})
		require.NoError(t, err)
	}
	bobs, err := svc.Assemble(ctx, "bob", Request{Config: twoMCQ()})
	require.NoError(t, err)

	list, err := svc.List(ctx, "alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "paper-2", list[0].ID)
	assert.Equal(t, "paper-1", list[1].ID)

	_, err = svc.Get(ctx, "alice", bobs.Paper.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceWithSQLStores(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	ib := itembank.NewSQLStore(dbh)
	_, _, err = ib.PutItems(ctx, "alice", items(assembly.TypeMCQ, 2, 2, 2))
	require.NoError(t, err)
	events := syncx.NewEventRepo(dbh)
	svc := NewService(ib, NewSQLStore(dbh), assembly.NewEngine(), WithEvents(events))

	out, err := svc.Assemble(ctx, "alice", Request{Title: "sql", Config: twoMCQ()})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "alice", out.Paper.ID)
	require.NoError(t, err)
	assert.Equal(t, "sql", got.Title)
	assert.True(t, got.Success)
	assert.Equal(t, out.Paper.ItemIDs, got.ItemIDs)
	assert.Equal(t, 2, got.Requested.ItemDistribution[assembly.TypeMCQ])

	list, err := svc.List(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	evs, err := events.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, out.Paper.ID, evs[0].Key)

	snap, err := ib.Snapshot(ctx, "alice", "")
	require.NoError(t, err)
	used := 0
	for _, it := range snap {
		used += it.UsageCount
	}
	assert.Equal(t, 2, used)
}
