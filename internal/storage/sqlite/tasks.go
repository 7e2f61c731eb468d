package sqlite

import (
	"context"
	"database/sql"

	"github.com/sandevgo/falcon/internal/core"
)

type TasksRepo struct {
	store *Store
}

func NewTasksRepo(store *Store) *TasksRepo {
	return &TasksRepo{store: store}
}

// Record appends a task-execution entry. There is no update path; the
// history is append-only.
func (r *TasksRepo) Record(ctx context.Context, rec core.TaskRecord) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO task_history (task_description, task_type, execution_status, result_summary, execution_time, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Description, rec.Type, string(rec.Status), rec.Summary, rec.Duration, r.store.now())
	return core.NewStorageError("record_task", err)
}

func (r *TasksRepo) Patterns(ctx context.Context, taskType string, limit int) ([]core.TaskRecord, error) {
	query := `SELECT id, task_description, task_type, execution_status, result_summary, execution_time, timestamp
		FROM task_history`
	var args []any
	if taskType != "" {
		query += ` WHERE task_type = ?`
		args = append(args, taskType)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError("task_patterns", err)
	}
	defer rows.Close()

	var records []core.TaskRecord
	for rows.Next() {
		var rec core.TaskRecord
		var status string
		var summary sql.NullString
		var duration sql.NullFloat64

		if err := rows.Scan(&rec.ID, &rec.Description, &rec.Type, &status, &summary, &duration, &rec.CreatedAt); err != nil {
			return nil, core.NewStorageError("task_patterns", err)
		}

		rec.Status = core.TaskStatus(status)
		rec.Summary = summary.String
		rec.Duration = duration.Float64
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("task_patterns", err)
	}
	return records, nil
}
