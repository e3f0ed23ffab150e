package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/internal/models"
	"task-tracker/internal/repositories"
	"task-tracker/testutil"
)

func createUser(t *testing.T, repo *repositories.UserRepository, email string) *models.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	})
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	return u
}

func newTask(title string, createdAt time.Time) *models.Task {
	return &models.Task{
		Title:     title,
		Status:    models.StatusPending,
		Priority:  models.PriorityMedium,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repositories.NewUserRepository(db)
	ctx := context.Background()

	createUser(t, repo, "alice@example.com")

	_, err := repo.Create(ctx, &models.User{Name: "Other", Email: "alice@example.com", PasswordHash: "x", CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUserRepository_Find(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repositories.NewUserRepository(db)
	ctx := context.Background()

	created := createUser(t, repo, "alice@example.com")

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.NotEmpty(t, byEmail.PasswordHash)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Empty(t, byID.PasswordHash, "IDでの取得ではハッシュを読み込まない")

	_, err = repo.FindByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestTaskRepository_OwnerScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	now := time.Now().UTC().Truncate(time.Second)
	task, err := tasks.Create(ctx, alice.ID, newTask("private", now))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, task.UserID)

	_, err = tasks.FindByOwner(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	hijack := *task
	hijack.Title = "hijacked"
	_, err = tasks.Update(ctx, bob.ID, &hijack)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	err = tasks.Delete(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)

	stored, err := tasks.FindByOwner(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", stored.Title)

	bobTasks, err := tasks.ListByOwner(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, bobTasks)
	assert.Empty(t, bobTasks)
}

func TestTaskRepository_ListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	base := time.Now().UTC().Truncate(time.Second)

	older, err := tasks.Create(ctx, alice.ID, newTask("older", base.Add(-time.Hour)))
	require.NoError(t, err)
	newer, err := tasks.Create(ctx, alice.ID, newTask("newer", base))
	require.NoError(t, err)
	sameSecond, err := tasks.Create(ctx, alice.ID, newTask("same second", base))
	require.NoError(t, err)

	list, err := tasks.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, sameSecond.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)
	assert.Equal(t, older.ID, list[2].ID)
}

func TestTaskRepository_UpdateAndNullableFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := repositories.NewUserRepository(db)
	tasks := repositories.NewTaskRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	now := time.Now().UTC().Truncate(time.Second)

	desc := "2 litres"
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	in := newTask("Buy milk", now)
	in.Description = &desc
	in.DueDate = &due
	task, err := tasks.Create(ctx, alice.ID, in)
	require.NoError(t, err)

	stored, err := tasks.FindByOwner(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Description)
	assert.Equal(t, desc, *stored.Description)
	require.NotNil(t, stored.DueDate)
	assert.True(t, due.Equal(*stored.DueDate))

	// 値が変わらない更新でも NotFound にならない
	_, err = tasks.Update(ctx, alice.ID, stored)
	require.NoError(t, err)

	stored.Description = nil
	stored.DueDate = nil
	stored.Status = models.StatusCompleted
	_, err = tasks.Update(ctx, alice.ID, stored)
	require.NoError(t, err)

	reloaded, err := tasks.FindByOwner(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Description)
	assert.Nil(t, reloaded.DueDate)
	assert.Equal(t, models.StatusCompleted, reloaded.Status)

	require.NoError(t, tasks.Delete(ctx, alice.ID, task.ID))
	_, err = tasks.FindByOwner(ctx, alice.ID, task.ID)
	assert.ErrorIs(t, err, repositories.ErrTaskNotFound)
}
