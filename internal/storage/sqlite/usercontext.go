package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/falcon/internal/core"
)

type UserContextRepo struct {
	store *Store
}

func NewUserContextRepo(store *Store) *UserContextRepo {
	return &UserContextRepo{store: store}
}

// Upsert is the only mutation path; user-context entries are never deleted
// in normal operation.
func (r *UserContextRepo) Upsert(ctx context.Context, key string, value core.Value, category string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return core.NewStorageError("upsert_user_context", fmt.Errorf("encode value: %w", err))
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO user_context (context_key, context_value, context_type, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(context_key) DO UPDATE SET
			context_value = excluded.context_value,
			context_type = excluded.context_type,
			last_updated = excluded.last_updated`,
		key, string(data), category, r.store.now())
	return core.NewStorageError("upsert_user_context", err)
}

func (r *UserContextRepo) Read(ctx context.Context, category string) (map[string]core.Value, error) {
	query := `SELECT context_key, context_value FROM user_context`
	var args []any
	if category != "" {
		query += ` WHERE context_type = ?`
		args = append(args, category)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError("read_user_context", err)
	}
	defer rows.Close()

	result := make(map[string]core.Value)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, core.NewStorageError("read_user_context", err)
		}

		var value core.Value
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// Legacy rows may hold bare strings; keep them readable
			value = core.StringValue(raw)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("read_user_context", err)
	}
	return result, nil
}
