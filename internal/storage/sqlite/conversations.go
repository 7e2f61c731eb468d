package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/pkg/log"
)

type TurnsRepo struct {
	store *Store
}

func NewTurnsRepo(store *Store) *TurnsRepo {
	return &TurnsRepo{store: store}
}

func (r *TurnsRepo) AppendTurn(ctx context.Context, sessionID, userText string, kind core.TurnKind, importance core.Importance, tags []string, tokenCount int) (int64, error) {
	query := `INSERT INTO conversations
		(session_id, user_message, assistant_message, message_type, importance_score, context_tags, token_count, response_time, timestamp)
		VALUES (?, ?, NULL, ?, ?, ?, ?, 0.0, ?)`

	res, err := r.store.db.ExecContext(ctx, query,
		sessionID, userText, string(kind), int(importance), marshalTags(tags), tokenCount, r.store.now())
	if err != nil {
		return 0, core.NewStorageError("append_turn", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.NewStorageError("append_turn", err)
	}
	return id, nil
}

// AttachResponse updates exactly one turn. A missing id is a silent no-op;
// callers must not assume existence validation.
func (r *TurnsRepo) AttachResponse(ctx context.Context, turnID int64, assistantText string, latency time.Duration) error {
	query := `UPDATE conversations SET assistant_message = ?, response_time = ? WHERE id = ?`

	_, err := r.store.db.ExecContext(ctx, query, assistantText, latency.Seconds(), turnID)
	return core.NewStorageError("attach_response", err)
}

func (r *TurnsRepo) RecentHistory(ctx context.Context, sessionID string, limit int, floor core.Importance) ([]core.Message, error) {
	query := `SELECT user_message, assistant_message FROM conversations
		WHERE session_id = ? AND assistant_message IS NOT NULL AND importance_score >= ?
		ORDER BY id DESC LIMIT ?`

	rows, err := r.store.db.QueryContext(ctx, query, sessionID, int(floor), limit)
	if err != nil {
		return nil, core.NewStorageError("recent_history", err)
	}
	defer rows.Close()

	type pair struct {
		user      string
		assistant string
	}
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.user, &p.assistant); err != nil {
			return nil, core.NewStorageError("recent_history", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("recent_history", err)
	}

	// The query returned turns newest-first. Reverse to chronological order
	// before flattening; the reasoning call depends on oldest-first input.
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}

	messages := make([]core.Message, 0, len(pairs)*2)
	for _, p := range pairs {
		messages = append(messages,
			core.Message{Role: core.RoleUser, Content: p.user},
			core.Message{Role: core.RoleAssistant, Content: p.assistant},
		)
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

func (r *TurnsRepo) SearchTurns(ctx context.Context, keyword string, limit int) ([]core.Turn, error) {
	query := `SELECT id, session_id, user_message, assistant_message, message_type, importance_score, context_tags, token_count, response_time, timestamp
		FROM conversations
		WHERE user_message LIKE ? OR assistant_message LIKE ?
		ORDER BY id DESC LIMIT ?`

	pattern := "%" + keyword + "%"
	rows, err := r.store.db.QueryContext(ctx, query, pattern, pattern, limit)
	if err != nil {
		return nil, core.NewStorageError("search_turns", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

func (r *TurnsRepo) SessionTurns(ctx context.Context, sessionID string) ([]core.Turn, error) {
	query := `SELECT id, session_id, user_message, assistant_message, message_type, importance_score, context_tags, token_count, response_time, timestamp
		FROM conversations WHERE session_id = ? ORDER BY id ASC`

	rows, err := r.store.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, core.NewStorageError("session_turns", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

func (r *TurnsRepo) CountSession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, core.NewStorageError("count_session", err)
	}
	return count, nil
}

func scanTurns(rows *sql.Rows) ([]core.Turn, error) {
	var turns []core.Turn
	for rows.Next() {
		var t core.Turn
		var assistant sql.NullString
		var kind string
		var tagsStr sql.NullString

		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserText, &assistant, &kind,
			&t.Importance, &tagsStr, &t.TokenCount, &t.ResponseTime, &t.CreatedAt); err != nil {
			return nil, core.NewStorageError("scan_turn", err)
		}

		if assistant.Valid {
			t.AssistantText = &assistant.String
		}
		t.Kind = core.TurnKind(kind)
		t.Tags = unmarshalTags(tagsStr.String)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("scan_turn", err)
	}
	return turns, nil
}

// marshalTags stores the tag list as a JSON array. Empty lists are stored as
// empty strings to save space, mirroring how unset columns read back.
func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalTags(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil
	}
	return tags
}
