package itembank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const itemColumns = `id,type,level,difficulty_score,tags_json,usage_count,content_json`

func (s *SQLStore) PutItems(ctx context.Context, ownerID string, items []assembly.Item) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	ins, upd := 0, 0
	for _, it := range items {
		tags, _ := json.Marshal(nonNilTags(it.Tags))
		content := string(it.Content)

		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE owner_id=$1 AND id=$2`, ownerID, it.ID).Scan(&exists)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `INSERT INTO items
				(owner_id,id,type,level,difficulty_score,tags_json,usage_count,content_json,created_at,updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				ownerID, it.ID, string(it.Type), string(it.Level), it.DifficultyScore, string(tags), it.UsageCount, content, now, now)
			if err != nil {
				return 0, 0, fmt.Errorf("insert item %s: %w", it.ID, err)
			}
			ins++
		case err != nil:
			return 0, 0, err
		default:
			// usage_count is owned by paper commits; re-imports keep it
			_, err = tx.ExecContext(ctx, `UPDATE items SET type=$1, level=$2, difficulty_score=$3, tags_json=$4, content_json=$5, updated_at=$6
				WHERE owner_id=$7 AND id=$8`,
				string(it.Type), string(it.Level), it.DifficultyScore, string(tags), content, now, ownerID, it.ID)
			if err != nil {
				return 0, 0, fmt.Errorf("update item %s: %w", it.ID, err)
			}
			upd++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return ins, upd, nil
}

func (s *SQLStore) GetItem(ctx context.Context, ownerID, id string) (assembly.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE owner_id=$1 AND id=$2`, ownerID, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return assembly.Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLStore) ListItems(ctx context.Context, ownerID string, opts ListOpts) ([]assembly.Item, error) {
	where := []string{"owner_id=$1"}
	args := []any{ownerID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.Type != "" {
		add("type=$%d", string(opts.Type))
	}
	if opts.Level != "" {
		add("level=$%d", string(opts.Level))
	}
	if tag := strings.TrimSpace(opts.Tag); tag != "" {
		quoted, _ := json.Marshal(tag)
		add("tags_json LIKE $%d", "%"+string(quoted)+"%")
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	q := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY created_at, id LIMIT %d OFFSET %d`,
		itemColumns, strings.Join(where, " AND "), limit, offset)
	return s.query(ctx, q, args...)
}

func (s *SQLStore) DeleteItem(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id=$1 AND id=$2`, ownerID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Snapshot(ctx context.Context, ownerID string, level assembly.Level) ([]assembly.Item, error) {
	if level == "" {
		return s.query(ctx, `SELECT `+itemColumns+` FROM items WHERE owner_id=$1 ORDER BY id`, ownerID)
	}
	return s.query(ctx, `SELECT `+itemColumns+` FROM items WHERE owner_id=$1 AND level=$2 ORDER BY id`, ownerID, string(level))
}

func (s *SQLStore) IncrementUsage(ctx context.Context, ownerID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, id := range dedupe(ids) {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET usage_count = usage_count + 1, updated_at=$1 WHERE owner_id=$2 AND id=$3`,
			now, ownerID, id); err != nil {
			return fmt.Errorf("increment usage %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) ([]assembly.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []assembly.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (assembly.Item, error) {
	var (
		it            assembly.Item
		typ, level    string
		tags, content string
	)
	if err := sc.Scan(&it.ID, &typ, &level, &it.DifficultyScore, &tags, &it.UsageCount, &content); err != nil {
		return assembly.Item{}, err
	}
	it.Type = assembly.ItemType(typ)
	it.Level = assembly.Level(level)
	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		it.Tags = nil
	}
	if content != "" {
		it.Content = json.RawMessage(content)
	}
	return it, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
