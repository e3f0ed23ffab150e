package testutil

import (
	"context"
	"sort"
	"sync"

	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
)

// MemoryUserStore はテスト用のインメモリなユーザーストアです。
// UserRepository と同じエラーを返します。
type MemoryUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

// NewMemoryUserStore は空のMemoryUserStoreを作成します。
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[int64]*models.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, repositories.ErrDuplicateEmail
		}
	}
	s.nextID++
	stored := *u
	stored.ID = s.nextID
	s.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	out.PasswordHash = ""
	return &out, nil
}

// Delete はユーザーを削除します。セッションが残ったままユーザーが消えたケースの再現に使います。
func (s *MemoryUserStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// Count は保存されているユーザー数を返します。
func (s *MemoryUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// MemoryTaskStore はテスト用のインメモリなタスクストアです。
// ListErr を設定すると ListByOwner がそのエラーを返します。
type MemoryTaskStore struct {
	mu      sync.Mutex
	nextID  int64
	tasks   map[int64]*models.Task
	ListErr error
}

// NewMemoryTaskStore は空のMemoryTaskStoreを作成します。
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[int64]*models.Task)}
}

func (s *MemoryTaskStore) Create(_ context.Context, ownerID int64, t *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := copyTask(t)
	stored.ID = s.nextID
	stored.UserID = ownerID
	s.tasks[stored.ID] = stored
	return copyTask(stored), nil
}

func (s *MemoryTaskStore) ListByOwner(_ context.Context, ownerID int64) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := []*models.Task{}
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryTaskStore) FindByOwner(_ context.Context, ownerID, taskID int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, repositories.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (s *MemoryTaskStore) Update(_ context.Context, ownerID int64, t *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok || existing.UserID != ownerID {
		return nil, repositories.ErrTaskNotFound
	}
	stored := copyTask(t)
	stored.UserID = ownerID
	stored.CreatedAt = existing.CreatedAt
	s.tasks[t.ID] = stored
	return copyTask(stored), nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, ownerID, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return repositories.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// Get は所有者を問わずタスクを返します。テストで保存内容を直接確認するために使います。
func (s *MemoryTaskStore) Get(taskID int64) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	return copyTask(t), true
}

func copyTask(t *models.Task) *models.Task {
	out := *t
	if t.Description != nil {
		d := *t.Description
		out.Description = &d
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return &out
}
