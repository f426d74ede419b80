package paper

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const paperColumns = `id,owner_id,title,requested_json,adjusted_json,item_ids_json,fallbacks_json,warnings_json,created_at`

func (s *SQLStore) PutPaper(ctx context.Context, p Paper) error {
	req, err := json.Marshal(p.Requested)
	if err != nil {
		return err
	}
	adj := ""
	if p.Adjusted != nil {
		b, err := json.Marshal(p.Adjusted)
		if err != nil {
			return err
		}
		adj = string(b)
	}
	ids, _ := json.Marshal(nonNil(p.ItemIDs))
	fbs, _ := json.Marshal(p.Fallbacks)
	if p.Fallbacks == nil {
		fbs = []byte("[]")
	}
	warns, _ := json.Marshal(nonNil(p.Warnings))

	_, err = s.db.ExecContext(ctx, `INSERT INTO papers (`+paperColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.OwnerID, p.Title, string(req), adj, string(ids), string(fbs), string(warns), p.CreatedAt)
	return err
}

func (s *SQLStore) GetPaper(ctx context.Context, ownerID, id string) (Paper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE owner_id=$1 AND id=$2`, ownerID, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Paper{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListPapers(ctx context.Context, ownerID string, limit, offset int) ([]Paper, error) {
	limit, offset = pageBounds(limit, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE owner_id=$1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Paper{}
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(sc scanner) (Paper, error) {
	var (
		p                     Paper
		req, adj, ids, fbs, w string
	)
	if err := sc.Scan(&p.ID, &p.OwnerID, &p.Title, &req, &adj, &ids, &fbs, &w, &p.CreatedAt); err != nil {
		return Paper{}, err
	}
	if err := json.Unmarshal([]byte(req), &p.Requested); err != nil {
		return Paper{}, err
	}
	if adj != "" {
		var c assembly.Config
		if err := json.Unmarshal([]byte(adj), &c); err != nil {
			return Paper{}, err
		}
		p.Adjusted = &c
	}
	if err := json.Unmarshal([]byte(ids), &p.ItemIDs); err != nil {
		return Paper{}, err
	}
	if err := json.Unmarshal([]byte(fbs), &p.Fallbacks); err != nil {
		return Paper{}, err
	}
	if err := json.Unmarshal([]byte(w), &p.Warnings); err != nil {
		return Paper{}, err
	}
	// only successful assemblies are committed
	p.Success = true
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
