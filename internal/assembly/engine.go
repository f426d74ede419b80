package assembly

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
)

// DefaultEmergencyLimit caps the arbitrary items returned by the last rung.
const DefaultEmergencyLimit = 10

// Engine runs the fallback ladder. It holds no per-call state and is safe for
// concurrent use; each call builds its own RNG.
type Engine struct {
	oversample     int
	emergencyLimit int
	substitutions  map[ItemType][]ItemType
	seed           *uint64
}

type Option func(*Engine)

// WithSeed pins the RNG seed so repeated calls are reproducible.
func WithSeed(seed uint64) Option { return func(e *Engine) { e.seed = &seed } }
func WithOversample(n int) Option { return func(e *Engine) { e.oversample = n } }
func WithEmergencyLimit(n int) Option {
	return func(e *Engine) { e.emergencyLimit = n }
}
func WithSubstitutions(table map[ItemType][]ItemType) Option {
	return func(e *Engine) { e.substitutions = table }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		oversample:     DefaultOversample,
		emergencyLimit: DefaultEmergencyLimit,
		substitutions:  DefaultSubstitutions,
	}
	for _, o := range opts {
		o(e)
	}
	if e.oversample < 1 {
		e.oversample = DefaultOversample
	}
	if e.emergencyLimit < 1 {
		e.emergencyLimit = DefaultEmergencyLimit
	}
	return e
}

// SeedFromString derives a stable seed from an identifier such as a paper or
// request ID.
func SeedFromString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Assemble selects items for cfg from snapshot. It never mutates either
// argument and always returns a Result; only an empty snapshot (nothing
// obtainable) yields Success=false.
func (e *Engine) Assemble(snapshot []Item, cfg Config) Result {
	seed := rand.Uint64()
	if e.seed != nil {
		seed = *e.seed
	}
	return e.AssembleSeeded(snapshot, cfg, seed)
}

// AssembleSeeded is Assemble with an explicit seed for this call.
func (e *Engine) AssembleSeeded(snapshot []Item, cfg Config, seed uint64) Result {
	r := &run{
		eng:      e,
		sel:      NewSelector(newRand(seed), e.oversample),
		snapshot: snapshot,
		req:      cfg.Clone(),
		eff:      cfg.Clone(),
		picked:   map[ItemType][]Item{},
		used:     map[string]struct{}{},
	}
	r.tags = mergeTags(cfg.Topics, cfg.Tags)
	return r.execute()
}

type bandShort struct {
	band      Band
	want, got int
}

// run is the state of a single assembly call.
type run struct {
	eng      *Engine
	sel      *Selector
	snapshot []Item
	tags     []string

	req Config
	eff Config

	picked map[ItemType][]Item
	used   map[string]struct{}

	fallbacks []Strategy
	warnings  []string
	relaxed   bool
}

func (r *run) execute() Result {
	short := r.direct()
	if r.satisfied() {
		return r.finish(true)
	}

	if len(short) > 0 && r.relaxDifficulty(short) && r.satisfied() {
		return r.finish(true)
	}
	if r.substituteTypes() && r.satisfied() {
		return r.finish(true)
	}
	if r.reduceTotal() {
		return r.finish(true)
	}
	return r.emergency()
}

func (r *run) target() int {
	if r.eff.TotalItems < 0 {
		return 0
	}
	return r.eff.TotalItems
}

func (r *run) satisfied() bool { return r.count() >= r.target() }

func (r *run) count() int {
	n := 0
	for _, items := range r.picked {
		n += len(items)
	}
	return n
}

func (r *run) filter(t ItemType, bands ...Band) Filter {
	return Filter{Type: t, Level: r.eff.Level, Bands: bands, Tags: r.tags, Exclude: r.used}
}

func (r *run) take(t ItemType, items []Item) {
	for _, it := range items {
		r.used[it.ID] = struct{}{}
	}
	r.picked[t] = append(r.picked[t], items...)
}

func (r *run) drop(t ItemType) []Item {
	prev := r.picked[t]
	for _, it := range prev {
		delete(r.used, it.ID)
	}
	delete(r.picked, t)
	return prev
}

// direct selects every (type, band) bucket of the requested config and
// returns the undersupplied buckets per type.
func (r *run) direct() map[ItemType][]bandShort {
	short := map[ItemType][]bandShort{}
	for _, t := range r.eff.RequestedTypes() {
		counts := Plan(r.eff.ItemDistribution[t], r.eff.DifficultyDistribution).Clamped()
		for _, b := range Bands {
			want := counts.Get(b)
			if want <= 0 {
				continue
			}
			got := r.sel.Select(r.snapshot, r.filter(t, b), want)
			r.take(t, got)
			if len(got) < want {
				short[t] = append(short[t], bandShort{band: b, want: want, got: len(got)})
			}
		}
	}
	return short
}

// relaxDifficulty re-selects each type with a short band from all bands at
// once. Types that gain nothing keep their banded selection.
func (r *run) relaxDifficulty(short map[ItemType][]bandShort) bool {
	changed := false
	for _, t := range sortedTypes(short) {
		want := r.eff.ItemDistribution[t]
		prev := r.drop(t)
		got := r.sel.Select(r.snapshot, r.filter(t), want)
		if len(got) <= len(prev) {
			r.take(t, prev)
			continue
		}
		r.take(t, got)
		changed = true

		notes := make([]string, 0, len(short[t]))
		for _, s := range short[t] {
			notes = append(notes, fmt.Sprintf("%s (needed %d, found %d)", s.band, s.want, s.got))
		}
		r.warnings = append(r.warnings, fmt.Sprintf(
			"Relaxed difficulty distribution for %s: insufficient %s", t, strings.Join(notes, ", ")))
	}
	if !changed {
		return false
	}
	r.relaxed = true
	r.fallbacks = append(r.fallbacks, StrategyRelaxDifficulty)
	r.eff.DifficultyDistribution = mixOf(r.selection())
	return true
}

// substituteTypes moves each type's remaining deficit onto other types in
// preference order, as far as their unused supply allows.
func (r *run) substituteTypes() bool {
	changed := false
	for _, t := range r.eff.RequestedTypes() {
		deficit := r.eff.ItemDistribution[t] - len(r.picked[t])
		if deficit <= 0 {
			continue
		}
		var moved []string
		for _, sub := range substitutesFor(r.eng.substitutions, t) {
			if deficit == 0 {
				break
			}
			if sub == t {
				continue
			}
			spare := r.sel.Count(r.snapshot, r.filter(sub))
			if spare == 0 {
				continue
			}
			got := r.sel.Select(r.snapshot, r.filter(sub), min(deficit, spare))
			if len(got) == 0 {
				continue
			}
			r.take(sub, got)
			r.eff.ItemDistribution[sub] += len(got)
			r.eff.ItemDistribution[t] -= len(got)
			deficit -= len(got)
			moved = append(moved, fmt.Sprintf("%s (%d)", sub, len(got)))
		}
		if r.eff.ItemDistribution[t] == 0 {
			delete(r.eff.ItemDistribution, t)
		}
		if len(moved) == 0 {
			continue
		}
		changed = true
		r.warnings = append(r.warnings, fmt.Sprintf(
			"Substituted %s items with %s", t, strings.Join(moved, ", ")))
	}
	if !changed {
		return false
	}
	r.fallbacks = append(r.fallbacks, StrategySubstituteTypes)
	if r.relaxed {
		r.eff.DifficultyDistribution = mixOf(r.selection())
	}
	return true
}

// reduceTotal shrinks the paper to what was obtainable. Every type already
// holds all the supply it can reach, so the adjusted distribution is the
// obtained per-type count. It fails only when nothing was obtainable at all.
func (r *run) reduceTotal() bool {
	obtainable := r.count()
	if obtainable == 0 {
		return false
	}
	from := r.eff.TotalItems

	dist := map[ItemType]int{}
	for t, items := range r.picked {
		if len(items) > 0 {
			dist[t] = len(items)
		}
	}
	r.eff.TotalItems = obtainable
	r.eff.ItemDistribution = dist
	if r.relaxed {
		r.eff.DifficultyDistribution = mixOf(r.selection())
	}
	r.fallbacks = append(r.fallbacks, StrategyReduceTotal)
	r.warnings = append(r.warnings, fmt.Sprintf("Total items reduced from %d to %d", from, obtainable))
	return true
}

// emergency drops every constraint and returns up to emergencyLimit items.
func (r *run) emergency() Result {
	for t := range r.picked {
		r.drop(t)
	}
	limit := r.eng.emergencyLimit
	if r.req.TotalItems > 0 && r.req.TotalItems < limit {
		limit = r.req.TotalItems
	}
	got := r.sel.Select(r.snapshot, Filter{}, limit)
	dist := map[ItemType]int{}
	for _, it := range got {
		r.take(it.Type, []Item{it})
		dist[it.Type]++
	}

	r.eff.TotalItems = len(got)
	r.eff.ItemDistribution = dist
	r.eff.DifficultyDistribution = mixOf(got)
	r.eff.Level = ""
	r.eff.Topics = nil
	r.eff.Tags = nil
	r.fallbacks = append(r.fallbacks, StrategyEmergency)
	if len(got) == 0 {
		r.warnings = append(r.warnings, "Emergency fallback used: no items available")
		return r.finish(false)
	}
	r.warnings = append(r.warnings, fmt.Sprintf(
		"Emergency fallback used: returned %d item(s) ignoring type, level, difficulty and tag constraints", len(got)))
	return r.finish(true)
}

// selection flattens the picks in canonical type order.
func (r *run) selection() []Item {
	out := make([]Item, 0, r.count())
	for _, t := range sortedTypes(r.picked) {
		out = append(out, r.picked[t]...)
	}
	return out
}

func (r *run) finish(success bool) Result {
	items := r.selection()
	if t := r.target(); len(items) > t {
		items = items[:t]
	}
	res := Result{
		Success:          success,
		SelectedItems:    items,
		FallbacksApplied: r.fallbacks,
		Warnings:         r.warnings,
	}
	if res.FallbacksApplied == nil {
		res.FallbacksApplied = []Strategy{}
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	if len(r.fallbacks) > 0 && !r.eff.equal(r.req) {
		adj := r.eff
		res.AdjustedConfig = &adj
	}
	return res
}

// mixOf reports the band fractions of items, rounded to three decimals.
func mixOf(items []Item) DifficultyMix {
	if len(items) == 0 {
		return DifficultyMix{}
	}
	var e, m, h int
	for _, it := range items {
		switch it.Band() {
		case BandEasy:
			e++
		case BandMedium:
			m++
		default:
			h++
		}
	}
	n := float64(len(items))
	round := func(x float64) float64 { return math.Round(x*1000) / 1000 }
	return DifficultyMix{Easy: round(float64(e) / n), Medium: round(float64(m) / n), Hard: round(float64(h) / n)}
}

func mergeTags(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, s := range l {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// sortedTypes returns the keys of m in canonical order, unknown types last.
func sortedTypes[V any](m map[ItemType]V) []ItemType {
	out := make([]ItemType, 0, len(m))
	for _, t := range ItemTypes {
		if _, ok := m[t]; ok {
			out = append(out, t)
		}
	}
	var extra []ItemType
	for t := range m {
		if !t.Valid() {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
