package sqlite

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/falcon/internal/core"
)

type FactsRepo struct {
	store *Store
}

func NewFactsRepo(store *Store) *FactsRepo {
	return &FactsRepo{store: store}
}

// UpsertFact replaces the fact stored under fact.Key. The content fingerprint
// is recomputed here on every call; callers never supply it. The row update
// and the tag-index rewrite are one atomic unit.
func (r *FactsRepo) UpsertFact(ctx context.Context, fact core.Fact) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewStorageError("upsert_fact", err)
	}
	defer tx.Rollback()

	fingerprint := contentFingerprint(fact.Content)
	now := r.store.now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO long_term_memory
			(memory_key, memory_content, memory_type, importance, context_tags, content_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(memory_key) DO UPDATE SET
			memory_content = excluded.memory_content,
			memory_type = excluded.memory_type,
			importance = excluded.importance,
			context_tags = excluded.context_tags,
			content_hash = excluded.content_hash,
			expires_at = excluded.expires_at`,
		fact.Key, fact.Content, fact.Category, int(fact.Importance),
		marshalTags(fact.Tags), fingerprint, now, nullableTime(fact.ExpiresAt))
	if err != nil {
		return core.NewStorageError("upsert_fact", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fact_tags WHERE memory_key = ?`, fact.Key); err != nil {
		return core.NewStorageError("upsert_fact", err)
	}
	for _, tag := range fact.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO fact_tags (memory_key, tag) VALUES (?, ?)`, fact.Key, tag); err != nil {
			return core.NewStorageError("upsert_fact", err)
		}
	}

	return core.NewStorageError("upsert_fact", tx.Commit())
}

// RelevantFacts filters by importance floor and tag overlap (OR across the
// requested tags, exact membership). Expired facts are invisible even while
// the row still exists. The access-count bump happens in the same
// transaction as the read; fact reads are deliberately not side-effect-free.
func (r *FactsRepo) RelevantFacts(ctx context.Context, tags []string, floor core.Importance, limit int) ([]core.Fact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, core.NewStorageError("relevant_facts", err)
	}
	defer tx.Rollback()

	now := r.store.now()

	query := `SELECT memory_key, memory_content, memory_type, importance, context_tags, content_hash, access_count, last_accessed, created_at, expires_at
		FROM long_term_memory
		WHERE importance >= ? AND (expires_at IS NULL OR expires_at > ?)`
	args := []any{int(floor), now}

	if len(tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tags)), ",")
		query += fmt.Sprintf(` AND memory_key IN (SELECT DISTINCT memory_key FROM fact_tags WHERE tag IN (%s))`, placeholders)
		for _, tag := range tags {
			args = append(args, tag)
		}
	}

	query += ` ORDER BY importance DESC, access_count DESC LIMIT ?`
	args = append(args, limit)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError("relevant_facts", err)
	}

	facts, err := scanFacts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range facts {
		if _, err := tx.ExecContext(ctx, `
			UPDATE long_term_memory
			SET access_count = access_count + 1, last_accessed = ?
			WHERE memory_key = ?`, now, facts[i].Key); err != nil {
			return nil, core.NewStorageError("relevant_facts", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, core.NewStorageError("relevant_facts", err)
	}
	return facts, nil
}

func (r *FactsRepo) AllFacts(ctx context.Context) ([]core.Fact, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT memory_key, memory_content, memory_type, importance, context_tags, content_hash, access_count, last_accessed, created_at, expires_at
		FROM long_term_memory
		ORDER BY importance DESC, last_accessed DESC`)
	if err != nil {
		return nil, core.NewStorageError("all_facts", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// CountActiveFacts counts facts that are logically present: a past expiry
// hides a row even before the sweep physically removes it.
func (r *FactsRepo) CountActiveFacts(ctx context.Context) (int, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM long_term_memory
		WHERE expires_at IS NULL OR expires_at > ?`, r.store.now()).Scan(&count)
	if err != nil {
		return 0, core.NewStorageError("count_facts", err)
	}
	return count, nil
}

func scanFacts(rows *sql.Rows) ([]core.Fact, error) {
	var facts []core.Fact
	for rows.Next() {
		var f core.Fact
		var tagsStr, hash sql.NullString
		var lastAccessed, expiresAt sql.NullTime

		if err := rows.Scan(&f.Key, &f.Content, &f.Category, &f.Importance, &tagsStr,
			&hash, &f.AccessCount, &lastAccessed, &f.CreatedAt, &expiresAt); err != nil {
			return nil, core.NewStorageError("scan_fact", err)
		}

		f.Tags = unmarshalTags(tagsStr.String)
		f.Fingerprint = hash.String
		if lastAccessed.Valid {
			t := lastAccessed.Time
			f.LastAccessed = &t
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			f.ExpiresAt = &t
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("scan_fact", err)
	}
	return facts, nil
}

func contentFingerprint(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
