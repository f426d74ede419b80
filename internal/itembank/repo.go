package itembank

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

var (
	ErrNotFound    = errors.New("item not found")
	ErrInvalidItem = errors.New("invalid item")
)

type ListOpts struct {
	Type   assembly.ItemType
	Level  assembly.Level
	Tag    string
	Limit  int
	Offset int
}

// Store is the owner-scoped item bank. Snapshot hands the assembly engine a
// detached copy; IncrementUsage is the only write that follows an assembly.
type Store interface {
	PutItems(ctx context.Context, ownerID string, items []assembly.Item) (inserted, updated int, err error)
	GetItem(ctx context.Context, ownerID, id string) (assembly.Item, error)
	ListItems(ctx context.Context, ownerID string, opts ListOpts) ([]assembly.Item, error)
	DeleteItem(ctx context.Context, ownerID, id string) error

	// Snapshot returns every item of ownerID at level (all levels when empty).
	Snapshot(ctx context.Context, ownerID string, level assembly.Level) ([]assembly.Item, error)
	IncrementUsage(ctx context.Context, ownerID string, ids []string) error
}
