package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"task-tracker/internal/models"
)

// ErrTaskNotFound はタスクが見つからない場合のエラーです。
// 他のユーザーのタスクに対しても同じエラーを返し、存在を推測させません。
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = "id, user_id, title, description, status, priority, due_date, created_at, updated_at"

// TaskRepository はタスクの永続化を行うための構造体です。
// すべてのクエリは user_id で絞り込みます。
type TaskRepository struct {
	DB *sql.DB
}

// NewTaskRepository は新しいTaskRepositoryインスタンスを作成します。
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// Create は新しいタスクを ownerID の所有として挿入します。
func (r *TaskRepository) Create(ctx context.Context, ownerID int64, t *models.Task) (*models.Task, error) {
	query := `INSERT INTO tasks (user_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.DB.ExecContext(ctx, query,
		ownerID, t.Title, nullString(t.Description), t.Status, t.Priority, nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("could not insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	t.ID = id
	t.UserID = ownerID
	return t, nil
}

// ListByOwner は ownerID のタスクを作成日時の新しい順に返します。0件でもエラーにはしません。
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// FindByOwner は ownerID が所有する taskID のタスクを返します。
func (r *TaskRepository) FindByOwner(ctx context.Context, ownerID, taskID int64) (*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = ? AND user_id = ?"
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}
	return t, nil
}

// Update は ownerID が所有するタスクの可変フィールドをすべて書き戻します。
// 部分更新のマージは呼び出し側 (TaskService) で行います。
func (r *TaskRepository) Update(ctx context.Context, ownerID int64, t *models.Task) (*models.Task, error) {
	query := `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	result, err := r.DB.ExecContext(ctx, query,
		t.Title, nullString(t.Description), t.Status, t.Priority, nullTime(t.DueDate), t.UpdatedAt, t.ID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	// DSNで clientFoundRows を有効にしているので、値が同じでも一致行数が返る
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// Delete は ownerID が所有する taskID のタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID int64) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, ownerID)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		dueDate     sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Status, &t.Priority, &dueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
