// Package models はユーザーとタスクを定義します。
package models

import "time"

// TaskStatus はタスクの進捗状態です。
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid は定義済みの状態かどうかを返します。
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority はタスクの優先度です。
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid は定義済みの優先度かどうかを返します。
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task はタスクのデータベース構造体を表します。
type Task struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"userId"` // 所有者
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskInput は作成・更新リクエストのボディです。
// 各フィールドはキーの有無とnullを区別します (部分更新用)。
// 所有者はリクエストから受け取らず、必ず認証済みユーザーから決まります。
type TaskInput struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Status      Optional[string] `json:"status"`
	Priority    Optional[string] `json:"priority"`
	DueDate     Optional[string] `json:"dueDate"`
}

// Empty は一つもフィールドが指定されていない場合 true を返します。
func (in TaskInput) Empty() bool {
	return !in.Title.Set && !in.Description.Set && !in.Status.Set && !in.Priority.Set && !in.DueDate.Set
}
