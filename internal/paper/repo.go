package paper

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("paper not found")

type Store interface {
	PutPaper(ctx context.Context, p Paper) error
	GetPaper(ctx context.Context, ownerID, id string) (Paper, error)
	// ListPapers returns the owner's papers, newest first.
	ListPapers(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error)
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
