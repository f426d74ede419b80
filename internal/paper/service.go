package paper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
	"github.com/mind-engage/mindengage-assembly/internal/platform/logger"
	syncx "github.com/mind-engage/mindengage-assembly/internal/sync"
)

// ErrNoItems is returned when the item bank yields nothing at all for a
// request. The Outcome still carries the engine result.
var ErrNoItems = errors.New("no items available")

// EventSink receives PaperAssembled events. *syncx.EventRepo implements it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

type Service struct {
	items  itembank.Store
	papers Store
	engine *assembly.Engine

	events    EventSink
	log       *logger.Logger
	fixedSeed *uint64
	siteID    string
	newID     func() string
	now       func() time.Time
}

type Option func(*Service)

func WithEvents(sink EventSink) Option       { return func(s *Service) { s.events = sink } }
func WithLogger(l *logger.Logger) Option     { return func(s *Service) { s.log = l } }
func WithSiteID(id string) Option            { return func(s *Service) { s.siteID = id } }
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// WithFixedSeed makes every assembly use seed instead of one derived from the
// paper ID. A nil seed is ignored.
func WithFixedSeed(seed *uint64) Option {
	return func(s *Service) {
		if seed != nil {
			v := *seed
			s.fixedSeed = &v
		}
	}
}

func NewService(items itembank.Store, papers Store, engine *assembly.Engine, opts ...Option) *Service {
	s := &Service{
		items:  items,
		papers: papers,
		engine: engine,
		log:    logger.Nop(),
		siteID: "local",
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Assemble builds a paper for req from the owner's item bank. Unless the
// request is a dry run, a successful paper is stored and then the usage counts
// and the PaperAssembled event are recorded. Once the paper is stored, failures
// in those follow-up writes are logged and the committed paper is returned.
func (s *Service) Assemble(ctx context.Context, ownerID string, req Request) (Outcome, error) {
	if err := req.Config.Validate(); err != nil {
		return Outcome{}, err
	}
	// the whole bank, so the emergency rung can reach past the level filter
	snapshot, err := s.items.Snapshot(ctx, ownerID, "")
	if err != nil {
		return Outcome{}, fmt.Errorf("snapshot: %w", err)
	}

	id := s.newID()
	seed := assembly.SeedFromString(id)
	if s.fixedSeed != nil {
		seed = *s.fixedSeed
	}
	res := s.engine.AssembleSeeded(snapshot, req.Config, seed)
	log := s.log.With("owner", ownerID, "paper_id", id, "bank_size", len(snapshot))

	out := Outcome{Result: res, DryRun: req.DryRun}
	if !res.Success {
		log.Warn("assembly found no items", "requested", req.Config.TotalItems)
		return out, fmt.Errorf("%w: requested %d, found 0", ErrNoItems, req.Config.TotalItems)
	}

	p := Paper{
		ID:        id,
		OwnerID:   ownerID,
		Title:     req.Title,
		Requested: req.Config.Clone(),
		Adjusted:  res.AdjustedConfig,
		ItemIDs:   res.IDs(),
		Fallbacks: res.FallbacksApplied,
		Warnings:  res.Warnings,
		Success:   true,
		CreatedAt: s.now().Unix(),
	}
	out.Paper = &p
	if len(res.FallbacksApplied) > 0 {
		log.Info("assembly fell back", "fallbacks", res.FallbacksApplied, "selected", len(p.ItemIDs))
	}
	if req.DryRun {
		return out, nil
	}

	if err := s.papers.PutPaper(ctx, p); err != nil {
		return Outcome{}, fmt.Errorf("store paper: %w", err)
	}
	if err := s.items.IncrementUsage(ctx, ownerID, p.ItemIDs); err != nil {
		log.Error("increment usage", "err", err)
	}
	if s.events != nil {
		fbs := make([]string, len(p.Fallbacks))
		for i, f := range p.Fallbacks {
			fbs[i] = string(f)
		}
		ev := syncx.PaperAssembled{PaperID: p.ID, OwnerID: ownerID, ItemIDs: p.ItemIDs, Fallbacks: fbs}.Event(s.siteID)
		if err := s.events.Append(ctx, ev); err != nil {
			log.Error("append paper event", "err", err)
		}
	}
	log.Debug("paper committed", "selected", len(p.ItemIDs))
	return out, nil
}

// CheckFeasibility reports supply gaps for cfg without selecting anything.
func (s *Service) CheckFeasibility(ctx context.Context, ownerID string, cfg assembly.Config) (assembly.Feasibility, error) {
	if err := cfg.Validate(); err != nil {
		return assembly.Feasibility{}, err
	}
	snapshot, err := s.items.Snapshot(ctx, ownerID, cfg.Level)
	if err != nil {
		return assembly.Feasibility{}, fmt.Errorf("snapshot: %w", err)
	}
	return assembly.CheckFeasibility(snapshot, cfg), nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (Paper, error) {
	return s.papers.GetPaper(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	return s.papers.ListPapers(ctx, ownerID, limit, offset)
}
