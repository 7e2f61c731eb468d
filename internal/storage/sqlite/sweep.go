package sqlite

import (
	"context"
	"time"

	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/pkg/log"
)

// Sweep removes what the retention policy allows: low-importance turns and
// failed task records older than the window, plus facts past their expiry.
// High-importance turns, successful tasks, and facts without an expiry are
// never touched regardless of age. The three deletes commit as one unit so
// concurrent readers never observe a half-applied sweep.
func (s *Store) Sweep(ctx context.Context, retainDays int) (core.SweepStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats core.SweepStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, core.NewStorageError("sweep", err)
	}
	defer tx.Rollback()

	now := s.now()
	cutoff := now.AddDate(0, 0, -retainDays)

	res, err := tx.ExecContext(ctx, `
		DELETE FROM conversations
		WHERE timestamp < ? AND importance_score <= ?`, cutoff, int(core.ImportanceLow))
	if err != nil {
		return stats, core.NewStorageError("sweep", err)
	}
	stats.Turns, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		DELETE FROM long_term_memory
		WHERE expires_at IS NOT NULL AND expires_at < ?`, now)
	if err != nil {
		return stats, core.NewStorageError("sweep", err)
	}
	stats.Facts, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		DELETE FROM task_history
		WHERE timestamp < ? AND execution_status = ?`, cutoff, string(core.TaskFailed))
	if err != nil {
		return stats, core.NewStorageError("sweep", err)
	}
	stats.Tasks, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return stats, core.NewStorageError("sweep", err)
	}

	log.FromCtx(ctx).Info().
		Int64("turns", stats.Turns).
		Int64("facts", stats.Facts).
		Int64("tasks", stats.Tasks).
		Msg("retention sweep completed")
	return stats, nil
}

// Vacuum reclaims file space after sweeps. Runs outside the write lock's
// transaction scope; sqlite forbids VACUUM inside a transaction.
func (s *Store) Vacuum(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `VACUUM`)
	return core.NewStorageError("vacuum", err)
}

// SetClock overrides the store clock. Test hook only.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
