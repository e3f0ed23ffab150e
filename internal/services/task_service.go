package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
)

// tasks テーブルの列幅です。description はTEXT型のバイト数上限です。
const (
	maxTitleLength      = 255
	maxDescriptionBytes = 65535
)

// TaskStore はTaskServiceが必要とするタスクの永続化操作です。
// すべての操作が所有者IDを必須の引数として受け取ります。
type TaskStore interface {
	Create(ctx context.Context, ownerID int64, t *models.Task) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Task, error)
	FindByOwner(ctx context.Context, ownerID, taskID int64) (*models.Task, error)
	Update(ctx context.Context, ownerID int64, t *models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID int64) error
}

// TaskService はタスク関連のビジネスロジックを扱います。
type TaskService struct {
	tasks TaskStore
	now   func() time.Time
}

// NewTaskService は新しいTaskServiceを作成します。
func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

// Create は ownerID の新しいタスクを作成します。
// status と priority は省略時 (または null) に pending / medium になります。
func (s *TaskService) Create(ctx context.Context, ownerID int64, in models.TaskInput) (*models.Task, error) {
	verr := &ValidationError{}

	task := &models.Task{
		Status:   models.StatusPending,
		Priority: models.PriorityMedium,
	}

	if !in.Title.Set || in.Title.Null {
		verr.add("title", "Title is required")
	} else {
		task.Title = validateTitle(verr, in.Title.Value, "Title is required")
	}
	task.Description = validateDescription(verr, in.Description)
	if in.Status.Set && !in.Status.Null {
		task.Status = validateStatus(verr, in.Status.Value)
	}
	if in.Priority.Set && !in.Priority.Null {
		task.Priority = validatePriority(verr, in.Priority.Value)
	}
	task.DueDate = validateDueDate(verr, in.DueDate)

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	task.CreatedAt = now
	task.UpdatedAt = now

	created, err := s.tasks.Create(ctx, ownerID, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// List は ownerID のタスクを新しい順に返します。
func (s *TaskService) List(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update は ownerID のタスクを部分更新します。
// 入力に含まれるフィールドだけを変更し、description と dueDate は null で消去します。
// 他のユーザーのタスクは存在しないものとして repositories.ErrTaskNotFound を返します。
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, in models.TaskInput) (*models.Task, error) {
	verr := &ValidationError{}

	var (
		title    string
		status   models.TaskStatus
		priority models.TaskPriority
	)
	if in.Title.Set {
		if in.Title.Null {
			verr.add("title", "Title cannot be empty")
		} else {
			title = validateTitle(verr, in.Title.Value, "Title cannot be empty")
		}
	}
	if in.Status.Set {
		if in.Status.Null {
			verr.add("status", statusMessage)
		} else {
			status = validateStatus(verr, in.Status.Value)
		}
	}
	if in.Priority.Set {
		if in.Priority.Null {
			verr.add("priority", priorityMessage)
		} else {
			priority = validatePriority(verr, in.Priority.Value)
		}
	}
	description := validateDescription(verr, in.Description)
	dueDate := validateDueDate(verr, in.DueDate)

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByOwner(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if in.Empty() {
		return task, nil
	}

	if in.Title.Set {
		task.Title = title
	}
	if in.Description.Set {
		task.Description = description
	}
	if in.Status.Set {
		task.Status = status
	}
	if in.Priority.Set {
		task.Priority = priority
	}
	if in.DueDate.Set {
		task.DueDate = dueDate
	}
	task.UpdatedAt = s.now().UTC().Truncate(time.Second)

	updated, err := s.tasks.Update(ctx, ownerID, task)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// Delete は ownerID のタスクを削除します。
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) error {
	if err := s.tasks.Delete(ctx, ownerID, taskID); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

const (
	statusMessage   = "Status must be one of pending, in-progress, completed"
	priorityMessage = "Priority must be one of low, medium, high"
)

// dueDateLayouts は受け付ける期限日の形式です。先頭はHTMLのdate inputの形式。
var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

func validateTitle(verr *ValidationError, raw, emptyMessage string) string {
	title := strings.TrimSpace(raw)
	switch {
	case title == "":
		verr.add("title", emptyMessage)
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.add("title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength))
	}
	return title
}

func validateStatus(verr *ValidationError, raw string) models.TaskStatus {
	status := models.TaskStatus(raw)
	if !status.Valid() {
		verr.add("status", statusMessage)
	}
	return status
}

func validatePriority(verr *ValidationError, raw string) models.TaskPriority {
	priority := models.TaskPriority(raw)
	if !priority.Valid() {
		verr.add("priority", priorityMessage)
	}
	return priority
}

// descriptionValue は空文字とnullをどちらも「説明なし」として扱います。
func descriptionValue(o models.Optional[string]) *string {
	if !o.Set || o.Null || o.Value == "" {
		return nil
	}
	v := o.Value
	return &v
}

func validateDescription(verr *ValidationError, o models.Optional[string]) *string {
	d := descriptionValue(o)
	if d != nil && len(*d) > maxDescriptionBytes {
		verr.add("description", fmt.Sprintf("Description must be at most %d bytes", maxDescriptionBytes))
	}
	return d
}

func validateDueDate(verr *ValidationError, o models.Optional[string]) *time.Time {
	if !o.Set || o.Null || strings.TrimSpace(o.Value) == "" {
		return nil
	}
	raw := strings.TrimSpace(o.Value)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC().Truncate(time.Second)
			return &t
		}
	}
	verr.add("dueDate", "Due date must be a valid date (YYYY-MM-DD or RFC 3339)")
	return nil
}
